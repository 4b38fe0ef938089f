package services

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"edu-fund-system/models"
)

type QuestService struct {
	DB *gorm.DB
}

func NewQuestService(db *gorm.DB) *QuestService {
	return &QuestService{DB: db}
}

// poolStatus summarizes a quest's funding situation for the catalog view.
type poolStatus struct {
	HasPool          bool     `json:"has_pool"`
	CompanyName      string   `json:"company_name,omitempty"`
	IsFull           bool     `json:"is_full"`
	IsOutOfFunds     bool     `json:"is_out_of_funds"`
	RemainingSlots   *int64   `json:"remaining_slots,omitempty"`
	RemainingBalance *float64 `json:"remaining_balance,omitempty"`
}

// GetAllQuests handles GET /api/quests — every quest with its pool status.
func (s *QuestService) GetAllQuests(c *fiber.Ctx) error {
	var quests []models.Quest
	if err := s.DB.Order("created_at DESC").Find(&quests).Error; err != nil {
		log.Printf("❌ DB error fetching quests: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quests"})
	}

	type questWithStatus struct {
		models.Quest
		PoolStatus poolStatus `json:"pool_status"`
	}

	res := make([]questWithStatus, 0, len(quests))
	for _, q := range quests {
		status := poolStatus{}

		var pool models.FundingPool
		err := s.DB.Preload("Company").
			Where("quest_id = ? AND active = ?", q.ID, true).
			Order("created_at DESC").
			First(&pool).Error
		if err == nil {
			var claims int64
			if cerr := s.DB.Model(&models.Reward{}).Where("pool_id = ?", pool.ID).Count(&claims).Error; cerr != nil {
				log.Printf("❌ DB error counting claims for pool %s: %v", pool.ID, cerr)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quests"})
			}
			slots := int64(pool.MaxParticipants) - claims
			status = poolStatus{
				HasPool:          true,
				CompanyName:      pool.Company.Name,
				IsFull:           claims >= int64(pool.MaxParticipants),
				IsOutOfFunds:     pool.RemainingBalance < pool.RewardPerStudent,
				RemainingSlots:   &slots,
				RemainingBalance: &pool.RemainingBalance,
			}
		}

		res = append(res, questWithStatus{Quest: q, PoolStatus: status})
	}

	return c.JSON(res)
}

// CreateQuest handles POST /api/quests (admin)
func (s *QuestService) CreateQuest(c *fiber.Ctx) error {
	var req struct {
		Title       string                 `json:"title" validate:"required"`
		Description string                 `json:"description" validate:"required"`
		Reward      float64                `json:"reward" validate:"required,gt=0"`
		Difficulty  models.QuestDifficulty `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
		Content     string                 `json:"content" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.Description == "" || req.Reward <= 0 || req.Difficulty == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}

	quest := &models.Quest{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Reward:      req.Reward,
		Difficulty:  req.Difficulty,
		Content:     req.Content,
	}
	if err := s.DB.Create(quest).Error; err != nil {
		log.Printf("❌ DB error creating quest: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create quest"})
	}

	return c.Status(fiber.StatusCreated).JSON(quest)
}
