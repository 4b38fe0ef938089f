package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"edu-fund-system/models"
)

// ClaimService sequences the two-phase reward protocol:
// CompleteQuest mints the signed claim ticket, ConfirmClaim settles the
// off-chain accounting after the caller redeemed the ticket on-chain.
type ClaimService struct {
	DB          *gorm.DB
	Eligibility *EligibilityService
	Tickets     *TicketService
	Accountant  *PoolAccountant
}

func NewClaimService(db *gorm.DB, tickets *TicketService) *ClaimService {
	return &ClaimService{
		DB:          db,
		Eligibility: NewEligibilityService(db),
		Tickets:     tickets,
		Accountant:  NewPoolAccountant(db),
	}
}

// CompleteResult is what phase 1 hands back to the caller. Ticket is nil
// when signing was unavailable; the completion is still recorded and the
// ticket can be reissued later.
type CompleteResult struct {
	Completion *models.CompletedQuest
	Reward     float64
	Ticket     *ClaimTicket
	Pool       *models.FundingPool
}

// ClaimResult is what phase 2 hands back. RemainingPoolBalance is set
// only for pool-funded claims.
type ClaimResult struct {
	Reward               *models.Reward
	RemainingPoolBalance *float64
}

func (s *ClaimService) findOrCreateUser(walletAddress string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("wallet_address = ?", walletAddress).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{ID: uuid.NewString(), WalletAddress: walletAddress}
		if cerr := s.DB.Create(&user).Error; cerr != nil {
			// another request for the same wallet may have won the insert
			if errors.Is(cerr, gorm.ErrDuplicatedKey) {
				if ferr := s.DB.Where("wallet_address = ?", walletAddress).First(&user).Error; ferr == nil {
					return &user, nil
				}
			}
			return nil, fmt.Errorf("create user: %w", cerr)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &user, nil
}

// CompleteQuest is phase 1: record the completion and mint a ticket.
// The unique index on (user, quest) is the duplicate guard of record;
// the eligibility read beforehand only produces the friendlier error.
// Signing failure degrades to a nil ticket rather than failing the
// completion.
func (s *ClaimService) CompleteQuest(walletAddress, questID string) (*CompleteResult, error) {
	user, err := s.findOrCreateUser(walletAddress)
	if err != nil {
		return nil, err
	}

	quest, pool, err := s.Eligibility.CheckCompletionEligibility(user.ID, questID)
	if err != nil {
		return nil, err
	}

	completion := &models.CompletedQuest{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		QuestID: questID,
	}
	if err := s.DB.Create(completion).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyCompleted
		}
		return nil, fmt.Errorf("create completion: %w", err)
	}

	reward := quest.Reward
	if pool != nil {
		reward = pool.RewardPerStudent
	}

	ticket, err := s.Tickets.IssueTicket(walletAddress, questID, pool, reward)
	if err != nil {
		log.Printf("⚠️  Ticket signing failed for quest %s, wallet %s: %v", questID, walletAddress, err)
		ticket = nil
	}

	return &CompleteResult{Completion: completion, Reward: reward, Ticket: ticket, Pool: pool}, nil
}

// ConfirmClaim is phase 2: the caller reports the on-chain redemption
// and the service settles the books. The claimed flag flip, the pool
// decrement and the claim record insert form one transaction — if any
// step fails the pool's money is not spent off-chain.
func (s *ClaimService) ConfirmClaim(walletAddress, questID string, txHash *string) (*ClaimResult, error) {
	var user models.User
	if err := s.DB.Where("wallet_address = ?", walletAddress).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCompleted
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	var completion models.CompletedQuest
	if err := s.DB.Where("user_id = ? AND quest_id = ?", user.ID, questID).First(&completion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCompleted
		}
		return nil, fmt.Errorf("lookup completion: %w", err)
	}
	if completion.RewardClaimed {
		return nil, ErrAlreadyClaimed
	}

	var quest models.Quest
	if err := s.DB.First(&quest, "id = ?", questID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("lookup quest: %w", err)
	}

	var (
		record *models.Reward
		pool   *models.FundingPool
	)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// off-chain double-spend guard: flip only if still unclaimed
		res := tx.Model(&models.CompletedQuest{}).
			Where("user_id = ? AND quest_id = ? AND reward_claimed = ?", user.ID, questID, false).
			Update("reward_claimed", true)
		if res.Error != nil {
			return fmt.Errorf("mark claimed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyClaimed
		}

		// pool state may have changed since phase 1; re-resolve and re-check
		var perr error
		pool, perr = s.Eligibility.ActivePoolForQuest(tx, questID)
		if perr != nil {
			return perr
		}

		amount := quest.Reward
		if pool != nil {
			amount = pool.RewardPerStudent
			claims, cerr := s.Accountant.CountClaims(tx, pool.ID)
			if cerr != nil {
				return cerr
			}
			if claims >= int64(pool.MaxParticipants) {
				return ErrPoolFull
			}
			if aerr := s.Accountant.ApplyClaim(tx, pool.ID, amount); aerr != nil {
				return aerr
			}
		}

		record = &models.Reward{
			ID:      uuid.NewString(),
			Wallet:  walletAddress,
			QuestID: questID,
			Amount:  amount,
			TxHash:  txHash,
		}
		if pool != nil {
			record.PoolID = &pool.ID
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("create claim record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ClaimResult{Reward: record}
	if pool != nil {
		var refreshed models.FundingPool
		if err := s.DB.First(&refreshed, "id = ?", pool.ID).Error; err == nil {
			result.RemainingPoolBalance = &refreshed.RemainingBalance
		}
	}
	return result, nil
}

// ReissueTicket re-signs the claim authorization for a recorded but
// unclaimed completion. Covers the learner whose completion succeeded
// while the signer was unavailable. Idempotent; no store mutation.
func (s *ClaimService) ReissueTicket(walletAddress, questID string) (*CompleteResult, error) {
	var user models.User
	if err := s.DB.Where("wallet_address = ?", walletAddress).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCompleted
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	var completion models.CompletedQuest
	if err := s.DB.Where("user_id = ? AND quest_id = ?", user.ID, questID).First(&completion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCompleted
		}
		return nil, fmt.Errorf("lookup completion: %w", err)
	}
	if completion.RewardClaimed {
		return nil, ErrAlreadyClaimed
	}

	var quest models.Quest
	if err := s.DB.First(&quest, "id = ?", questID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("lookup quest: %w", err)
	}

	pool, err := s.Eligibility.ActivePoolForQuest(s.DB, questID)
	if err != nil {
		return nil, err
	}

	reward := quest.Reward
	if pool != nil {
		reward = pool.RewardPerStudent
	}

	ticket, err := s.Tickets.IssueTicket(walletAddress, questID, pool, reward)
	if err != nil {
		return nil, err
	}
	return &CompleteResult{Completion: &completion, Reward: reward, Ticket: ticket, Pool: pool}, nil
}

// --- HTTP handlers ---

func claimErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrQuestNotFound), errors.Is(err, ErrNotCompleted):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, ErrPoolFull),
		errors.Is(err, ErrPoolInsufficientFunds):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrAlreadyClaimed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrNoSigningKey):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("❌ Claim operation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func completeResponse(result *CompleteResult) fiber.Map {
	resp := fiber.Map{
		"message":         "Quest completed successfully",
		"completed_quest": result.Completion,
		"reward":          result.Reward,
		"uses_pool":       result.Pool != nil,
		"ticket":          result.Ticket,
	}
	if result.Pool != nil {
		resp["pool_id"] = result.Pool.ID
		resp["funding_pool"] = fiber.Map{
			"id":                 result.Pool.ID,
			"course_name":        result.Pool.CourseName,
			"reward_per_student": result.Pool.RewardPerStudent,
		}
	}
	return resp
}

// CompleteQuestHandler handles POST /api/quests/:id/complete
func (s *ClaimService) CompleteQuestHandler(c *fiber.Ctx) error {
	questID := c.Params("id")

	var req struct {
		WalletAddress string `json:"wallet_address" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WalletAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Wallet address is required"})
	}

	result, err := s.CompleteQuest(req.WalletAddress, questID)
	if err != nil {
		return claimErrorResponse(c, err)
	}
	if result.Ticket == nil {
		log.Printf("⚠️  Completion recorded without ticket for quest %s, wallet %s", questID, req.WalletAddress)
	}
	return c.Status(fiber.StatusCreated).JSON(completeResponse(result))
}

// ConfirmClaimHandler handles POST /api/rewards/claim
func (s *ClaimService) ConfirmClaimHandler(c *fiber.Ctx) error {
	var req struct {
		WalletAddress string  `json:"wallet_address" validate:"required"`
		QuestID       string  `json:"quest_id" validate:"required,uuid"`
		TxHash        *string `json:"tx_hash"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WalletAddress == "" || req.QuestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Wallet address and quest ID are required"})
	}

	result, err := s.ConfirmClaim(req.WalletAddress, req.QuestID, req.TxHash)
	if err != nil {
		return claimErrorResponse(c, err)
	}

	resp := fiber.Map{
		"message": "Reward claimed successfully",
		"reward":  result.Reward,
	}
	if result.RemainingPoolBalance != nil {
		resp["from_pool"] = fiber.Map{
			"pool_id":   *result.Reward.PoolID,
			"remaining": *result.RemainingPoolBalance,
		}
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ReissueTicketHandler handles POST /api/rewards/reissue
func (s *ClaimService) ReissueTicketHandler(c *fiber.Ctx) error {
	var req struct {
		WalletAddress string `json:"wallet_address" validate:"required"`
		QuestID       string `json:"quest_id" validate:"required,uuid"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WalletAddress == "" || req.QuestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Wallet address and quest ID are required"})
	}

	result, err := s.ReissueTicket(req.WalletAddress, req.QuestID)
	if err != nil {
		return claimErrorResponse(c, err)
	}
	return c.JSON(completeResponse(result))
}

// GetLearnerProfileHandler handles GET /api/users/:wallet
func (s *ClaimService) GetLearnerProfileHandler(c *fiber.Ctx) error {
	walletAddress := c.Params("wallet")

	var user models.User
	err := s.DB.Preload("CompletedQuests.Quest").
		Where("wallet_address = ?", walletAddress).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// unknown wallets get an empty profile, not a 404
		return c.JSON(fiber.Map{
			"wallet_address":   walletAddress,
			"completed_quests": []models.CompletedQuest{},
			"total_rewards":    0,
		})
	}
	if err != nil {
		log.Printf("❌ DB error fetching profile for %s: %v", walletAddress, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user profile"})
	}

	var totalRewards float64
	for _, cq := range user.CompletedQuests {
		totalRewards += cq.Quest.Reward
	}

	return c.JSON(fiber.Map{
		"id":               user.ID,
		"wallet_address":   user.WalletAddress,
		"completed_quests": user.CompletedQuests,
		"total_rewards":    totalRewards,
		"created_at":       user.CreatedAt,
	})
}

// GetWalletRewardsHandler handles GET /api/rewards/:wallet
func (s *ClaimService) GetWalletRewardsHandler(c *fiber.Ctx) error {
	wallet := c.Params("wallet")

	var rewards []models.Reward
	if err := s.DB.Where("wallet = ?", wallet).Order("claimed_at DESC").Find(&rewards).Error; err != nil {
		log.Printf("❌ DB error fetching rewards for %s: %v", wallet, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch rewards"})
	}

	var totalClaimed float64
	for _, r := range rewards {
		totalClaimed += r.Amount
	}

	return c.JSON(fiber.Map{
		"rewards":       rewards,
		"total_claimed": totalClaimed,
		"count":         len(rewards),
	})
}
