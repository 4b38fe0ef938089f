package handlers

import (
	"edu-fund-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQuestRoutes(app *fiber.App, questService *services.QuestService, claimService *services.ClaimService) {
	app.Get("/api/quests", questService.GetAllQuests)
	app.Post("/api/quests", questService.CreateQuest)
	app.Post("/api/quests/:id/complete", claimService.CompleteQuestHandler)
}
