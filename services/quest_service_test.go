package services

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"edu-fund-system/models"
)

func newQuestTestApp(svc *QuestService) *fiber.App {
	app := fiber.New()
	app.Get("/api/quests", svc.GetAllQuests)
	app.Post("/api/quests", svc.CreateQuest)
	return app
}

func TestGetAllQuestsPoolStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuestService(db)
	app := newQuestTestApp(svc)

	treasury := createTestQuest(t, db, 7)
	funded := &models.Quest{
		ID:         "11111111-1111-1111-1111-111111111111",
		Title:      "Funded Course",
		Slug:       "funded-course",
		Reward:     10,
		Difficulty: models.QuestDifficultyIntermediate,
	}
	if err := db.Create(funded).Error; err != nil {
		t.Fatalf("create funded quest: %v", err)
	}
	pool := createTestPool(t, db, funded.ID, 100, 10, 10)

	req := httptest.NewRequest("GET", "/api/quests", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var quests []struct {
		ID         string `json:"id"`
		PoolStatus struct {
			HasPool          bool     `json:"has_pool"`
			CompanyName      string   `json:"company_name"`
			IsFull           bool     `json:"is_full"`
			IsOutOfFunds     bool     `json:"is_out_of_funds"`
			RemainingSlots   *int64   `json:"remaining_slots"`
			RemainingBalance *float64 `json:"remaining_balance"`
		} `json:"pool_status"`
	}
	if err := json.Unmarshal(body, &quests); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(quests) != 2 {
		t.Fatalf("expected 2 quests, got %d", len(quests))
	}

	byID := map[string]int{}
	for i, q := range quests {
		byID[q.ID] = i
	}

	ts := quests[byID[treasury.ID]].PoolStatus
	if ts.HasPool {
		t.Fatal("treasury quest must report no pool")
	}

	fs := quests[byID[funded.ID]].PoolStatus
	if !fs.HasPool {
		t.Fatal("funded quest must report its pool")
	}
	if fs.IsFull || fs.IsOutOfFunds {
		t.Fatalf("fresh pool must be open, got %+v", fs)
	}
	if fs.RemainingSlots == nil || *fs.RemainingSlots != 10 {
		t.Fatalf("expected 10 remaining slots, got %v", fs.RemainingSlots)
	}
	if fs.RemainingBalance == nil || *fs.RemainingBalance != pool.TotalFund {
		t.Fatalf("expected remaining balance %v, got %v", pool.TotalFund, fs.RemainingBalance)
	}
}

func TestCreateQuestHandler(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQuestService(db)
	app := newQuestTestApp(svc)

	payload := map[string]interface{}{
		"title":       "Intro to DeFi",
		"description": "Basics of decentralized finance",
		"reward":      5,
		"difficulty":  "beginner",
		"content":     "Lesson material",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/quests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var quest models.Quest
	if err := db.Where("title = ?", "Intro to DeFi").First(&quest).Error; err != nil {
		t.Fatalf("quest not persisted: %v", err)
	}
	if quest.Slug != "intro-to-defi" {
		t.Fatalf("unexpected slug %q", quest.Slug)
	}

	// missing fields are rejected before touching the store
	req = httptest.NewRequest("POST", "/api/quests", bytes.NewReader([]byte(`{"title":"Only Title"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
