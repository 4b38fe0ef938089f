package services

import (
	"encoding/hex"
	"fmt"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"edu-fund-system/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestSigner(t *testing.T) *SignerService {
	t.Helper()
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := NewSignerService(hex.EncodeToString(ethcrypto.FromECDSA(priv)))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}

func newTestClaimService(t *testing.T, db *gorm.DB) *ClaimService {
	t.Helper()
	return NewClaimService(db, NewTicketService(newTestSigner(t)))
}

func createTestQuest(t *testing.T, db *gorm.DB, reward float64) *models.Quest {
	t.Helper()
	quest := &models.Quest{
		ID:          uuid.NewString(),
		Title:       "Intro to Smart Contracts",
		Slug:        "intro-to-smart-contracts",
		Description: "Learn the basics",
		Reward:      reward,
		Difficulty:  models.QuestDifficultyBeginner,
		Content:     "Lesson content",
	}
	if err := db.Create(quest).Error; err != nil {
		t.Fatalf("create quest: %v", err)
	}
	return quest
}

func createTestCompany(t *testing.T, db *gorm.DB) *models.Company {
	t.Helper()
	company := &models.Company{
		ID:            uuid.NewString(),
		Name:          "Acme Learning",
		Email:         uuid.NewString() + "@acme.test",
		WalletAddress: "0x" + uuid.NewString()[:8],
		Password:      "irrelevant-hash",
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return company
}

func createTestPool(t *testing.T, db *gorm.DB, questID string, totalFund, rewardPerStudent float64, maxParticipants int) *models.FundingPool {
	t.Helper()
	company := createTestCompany(t, db)
	pool := &models.FundingPool{
		ID:               uuid.NewString(),
		CompanyID:        company.ID,
		QuestID:          &questID,
		CourseName:       "Solidity Bootcamp",
		TotalFund:        totalFund,
		RewardPerStudent: rewardPerStudent,
		MaxParticipants:  maxParticipants,
		RemainingBalance: totalFund,
		Active:           true,
	}
	if err := db.Create(pool).Error; err != nil {
		t.Fatalf("create pool: %v", err)
	}
	return pool
}

func testWallet(i int) string {
	return fmt.Sprintf("0x%040d", i)
}
