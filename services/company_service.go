package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"edu-fund-system/models"
	"edu-fund-system/utils"
)

// CompanyService covers company auth and funding pool lifecycle.
type CompanyService struct {
	DB           *gorm.DB
	JWTSecret    []byte
	PoolContract string
}

func NewCompanyService(db *gorm.DB, jwtSecret []byte, poolContract string) *CompanyService {
	return &CompanyService{DB: db, JWTSecret: jwtSecret, PoolContract: poolContract}
}

var titleCaser = cases.Title(language.English)

func (s *CompanyService) issueToken(company *models.Company) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"company_id": company.ID,
		"email":      company.Email,
		"exp":        time.Now().Add(7 * 24 * time.Hour).Unix(),
	})
	return token.SignedString(s.JWTSecret)
}

// RegisterCompany creates a company account and returns a session token.
func (s *CompanyService) RegisterCompany(name, email, walletAddress, password string) (*models.Company, string, error) {
	var existing int64
	if err := s.DB.Model(&models.Company{}).
		Where("email = ? OR wallet_address = ?", email, walletAddress).
		Count(&existing).Error; err != nil {
		return nil, "", fmt.Errorf("check existing company: %w", err)
	}
	if existing > 0 {
		return nil, "", ErrCompanyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	company := &models.Company{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		WalletAddress: walletAddress,
		Password:      string(hashed),
	}
	if err := s.DB.Create(company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrCompanyExists
		}
		return nil, "", fmt.Errorf("create company: %w", err)
	}

	token, err := s.issueToken(company)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return company, token, nil
}

// Login verifies credentials and returns a session token.
func (s *CompanyService) Login(email, password string) (*models.Company, string, error) {
	var company models.Company
	if err := s.DB.Where("email = ?", email).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup company: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(company.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(&company)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return &company, token, nil
}

// PoolRequest carries the validated fields of a funding request.
type PoolRequest struct {
	CourseName       string
	Description      string
	Content          string
	TotalFund        float64
	RewardPerStudent float64
	MaxParticipants  int
	MaterialURL      string
}

// CreatePool opens a funding pool and auto-creates the quest learners
// will see. TotalFund must cover RewardPerStudent for every participant
// slot; the pool starts with its full balance remaining.
func (s *CompanyService) CreatePool(companyID string, req PoolRequest) (*models.FundingPool, *models.Quest, error) {
	if req.TotalFund < req.RewardPerStudent*float64(req.MaxParticipants) {
		return nil, nil, ErrPoolUnderfunded
	}

	var company models.Company
	if err := s.DB.First(&company, "id = ?", companyID).Error; err != nil {
		return nil, nil, fmt.Errorf("lookup company: %w", err)
	}

	title := titleCaser.String(req.CourseName)
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Learn %s and earn %.2f mUSD. Funded by %s.", title, req.RewardPerStudent, company.Name)
	}
	content := req.Content
	if content == "" {
		content = fmt.Sprintf("Complete this course to earn %.2f mUSD!\n\nThis learning opportunity is funded by %s.\n\nCourse: %s", req.RewardPerStudent, company.Name, title)
	}

	var (
		quest *models.Quest
		pool  *models.FundingPool
	)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		quest = &models.Quest{
			ID:          uuid.NewString(),
			Title:       title,
			Slug:        slug.Make(title),
			Description: description,
			Reward:      req.RewardPerStudent,
			Difficulty:  models.QuestDifficultyIntermediate,
			Content:     content,
			MaterialURL: req.MaterialURL,
		}
		if err := tx.Create(quest).Error; err != nil {
			return fmt.Errorf("create quest: %w", err)
		}

		pool = &models.FundingPool{
			ID:               uuid.NewString(),
			CompanyID:        companyID,
			QuestID:          &quest.ID,
			CourseName:       req.CourseName,
			TotalFund:        req.TotalFund,
			RewardPerStudent: req.RewardPerStudent,
			MaxParticipants:  req.MaxParticipants,
			RemainingBalance: req.TotalFund,
			Active:           true,
			ContractAddress:  s.PoolContract,
		}
		if err := tx.Create(pool).Error; err != nil {
			return fmt.Errorf("create pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return pool, quest, nil
}

// ClosePool deactivates a pool, soft-deletes its auto-created quest and
// removes unclaimed completions referencing it. Claim records are left
// untouched — they are the historical ledger. Returns the refundable
// balance.
func (s *CompanyService) ClosePool(companyID, poolID string) (float64, error) {
	var pool models.FundingPool
	if err := s.DB.Where("id = ? AND company_id = ?", poolID, companyID).First(&pool).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPoolNotFound
		}
		return 0, fmt.Errorf("lookup pool: %w", err)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if pool.QuestID != nil {
			if err := tx.Where("quest_id = ? AND reward_claimed = ?", *pool.QuestID, false).
				Delete(&models.CompletedQuest{}).Error; err != nil {
				return fmt.Errorf("delete pending completions: %w", err)
			}
			if err := tx.Delete(&models.Quest{}, "id = ?", *pool.QuestID).Error; err != nil {
				return fmt.Errorf("delete quest: %w", err)
			}
		}
		if err := tx.Model(&models.FundingPool{}).Where("id = ?", pool.ID).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("deactivate pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pool.RemainingBalance, nil
}

// --- HTTP handlers ---

func companyErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrCompanyExists), errors.Is(err, ErrPoolUnderfunded):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrPoolNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("❌ Company operation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func companyResponse(company *models.Company) fiber.Map {
	return fiber.Map{
		"id":             company.ID,
		"name":           company.Name,
		"email":          company.Email,
		"wallet_address": company.WalletAddress,
	}
}

// RegisterHandler handles POST /api/company/register
func (s *CompanyService) RegisterHandler(c *fiber.Ctx) error {
	var req struct {
		Name          string `json:"name" validate:"required"`
		Email         string `json:"email" validate:"required,email"`
		WalletAddress string `json:"wallet_address" validate:"required"`
		Password      string `json:"password" validate:"required,min=8"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.Email == "" || req.WalletAddress == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "All fields are required"})
	}

	company, token, err := s.RegisterCompany(req.Name, req.Email, req.WalletAddress, req.Password)
	if err != nil {
		return companyErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Company registered successfully",
		"token":   token,
		"company": companyResponse(company),
	})
}

// LoginHandler handles POST /api/company/login
func (s *CompanyService) LoginHandler(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	company, token, err := s.Login(req.Email, req.Password)
	if err != nil {
		return companyErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"company": companyResponse(company),
	})
}

// CreatePoolHandler handles POST /api/pools/create. Accepts JSON or
// multipart form; an optional "material" file is stored and linked to
// the auto-created quest.
func (s *CompanyService) CreatePoolHandler(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	var req struct {
		CourseName       string  `json:"course_name" form:"course_name" validate:"required"`
		Description      string  `json:"description" form:"description"`
		Content          string  `json:"content" form:"content"`
		TotalFund        float64 `json:"total_fund" form:"total_fund" validate:"required,gt=0"`
		RewardPerStudent float64 `json:"reward_per_student" form:"reward_per_student" validate:"required,gt=0"`
		MaxParticipants  int     `json:"max_participants" form:"max_participants" validate:"required,gt=0"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.CourseName == "" || req.TotalFund <= 0 || req.RewardPerStudent <= 0 || req.MaxParticipants <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "All fields are required"})
	}

	materialURL := ""
	if fileHeader, err := c.FormFile("material"); err == nil && fileHeader != nil {
		key := fmt.Sprintf("materials/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
		url, uerr := utils.StoreCourseMaterial(fileHeader, key)
		if uerr != nil {
			log.Printf("❌ Failed to store course material: %v", uerr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store course material"})
		}
		materialURL = url
	}

	pool, quest, err := s.CreatePool(companyID, PoolRequest{
		CourseName:       req.CourseName,
		Description:      req.Description,
		Content:          req.Content,
		TotalFund:        req.TotalFund,
		RewardPerStudent: req.RewardPerStudent,
		MaxParticipants:  req.MaxParticipants,
		MaterialURL:      materialURL,
	})
	if err != nil {
		return companyErrorResponse(c, err)
	}

	// the ledger-side pool identifier the contract keys its state on
	poolIDBytes := hexutil.Encode(ethcrypto.Keccak256([]byte(pool.ID)))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Funding pool and quest created successfully",
		"pool":          pool,
		"quest":         quest,
		"pool_id_bytes": poolIDBytes,
		"instructions": fiber.Map{
			"step1":            "Approve mUSD spending",
			"step2":            "Call createPool on contract",
			"contract_address": s.PoolContract,
		},
	})
}

// ListPoolsHandler handles GET /api/pools/list
func (s *CompanyService) ListPoolsHandler(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	var pools []models.FundingPool
	if err := s.DB.Where("company_id = ?", companyID).Order("created_at DESC").Find(&pools).Error; err != nil {
		log.Printf("❌ DB error fetching pools: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch pools"})
	}

	type poolWithCount struct {
		models.FundingPool
		ClaimCount int64 `json:"claim_count"`
	}
	res := make([]poolWithCount, 0, len(pools))
	for _, p := range pools {
		var claims int64
		if err := s.DB.Model(&models.Reward{}).Where("pool_id = ?", p.ID).Count(&claims).Error; err != nil {
			log.Printf("❌ DB error counting claims for pool %s: %v", p.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch pools"})
		}
		res = append(res, poolWithCount{FundingPool: p, ClaimCount: claims})
	}

	return c.JSON(fiber.Map{"pools": res})
}

// GetPoolHandler handles GET /api/pools/:id
func (s *CompanyService) GetPoolHandler(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)
	poolID := c.Params("id")

	var pool models.FundingPool
	err := s.DB.Preload("Company").Preload("Quest").
		Where("id = ? AND company_id = ?", poolID, companyID).
		First(&pool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pool not found"})
	}
	if err != nil {
		log.Printf("❌ DB error fetching pool %s: %v", poolID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch pool details"})
	}

	var claims []models.Reward
	if err := s.DB.Where("pool_id = ?", pool.ID).Order("claimed_at DESC").Limit(50).Find(&claims).Error; err != nil {
		log.Printf("❌ DB error fetching pool claims: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch pool details"})
	}

	return c.JSON(fiber.Map{"pool": pool, "claims": claims})
}

// ClosePoolHandler handles DELETE /api/pools/:id
func (s *CompanyService) ClosePoolHandler(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)
	poolID := c.Params("id")

	refund, err := s.ClosePool(companyID, poolID)
	if err != nil {
		return companyErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message":          "Pool closed and quest removed successfully",
		"refund_available": refund,
	})
}
