package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"edu-fund-system/models"
)

// EligibilityService decides whether a completion may be recorded and
// whether a claim may later be authorized. The pool gates are advisory
// at completion time and re-run inside the claim transaction, because
// pool state can change in the window between the two phases.
type EligibilityService struct {
	DB *gorm.DB
}

func NewEligibilityService(db *gorm.DB) *EligibilityService {
	return &EligibilityService{DB: db}
}

// ActivePoolForQuest returns the newest active funding pool backing
// questID, or nil when the quest pays from the platform treasury.
func (s *EligibilityService) ActivePoolForQuest(tx *gorm.DB, questID string) (*models.FundingPool, error) {
	var pool models.FundingPool
	err := tx.Where("quest_id = ? AND active = ?", questID, true).
		Order("created_at DESC").
		First(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup pool for quest %s: %w", questID, err)
	}
	return &pool, nil
}

// CheckPoolCapacity applies the pool gates shared by both phases:
// participant cap, then remaining balance. nil pool passes.
func (s *EligibilityService) CheckPoolCapacity(tx *gorm.DB, pool *models.FundingPool) error {
	if pool == nil {
		return nil
	}
	var claims int64
	if err := tx.Model(&models.Reward{}).Where("pool_id = ?", pool.ID).Count(&claims).Error; err != nil {
		return fmt.Errorf("count pool claims: %w", err)
	}
	if claims >= int64(pool.MaxParticipants) {
		return ErrPoolFull
	}
	if pool.RemainingBalance < pool.RewardPerStudent {
		return ErrPoolInsufficientFunds
	}
	return nil
}

// CheckCompletionEligibility runs the completion-time gates and returns
// the quest plus its active pool (nil for treasury quests) on success.
func (s *EligibilityService) CheckCompletionEligibility(userID, questID string) (*models.Quest, *models.FundingPool, error) {
	var quest models.Quest
	if err := s.DB.First(&quest, "id = ?", questID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrQuestNotFound
		}
		return nil, nil, fmt.Errorf("lookup quest: %w", err)
	}

	var existing int64
	if err := s.DB.Model(&models.CompletedQuest{}).
		Where("user_id = ? AND quest_id = ?", userID, questID).
		Count(&existing).Error; err != nil {
		return nil, nil, fmt.Errorf("check existing completion: %w", err)
	}
	if existing > 0 {
		return nil, nil, ErrAlreadyCompleted
	}

	pool, err := s.ActivePoolForQuest(s.DB, questID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.CheckPoolCapacity(s.DB, pool); err != nil {
		return nil, nil, err
	}
	return &quest, pool, nil
}
