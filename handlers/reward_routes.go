package handlers

import (
	"edu-fund-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRewardRoutes(app *fiber.App, claimService *services.ClaimService) {
	app.Post("/api/rewards/claim", claimService.ConfirmClaimHandler)
	app.Post("/api/rewards/reissue", claimService.ReissueTicketHandler)
	app.Get("/api/rewards/:wallet", claimService.GetWalletRewardsHandler)
	app.Get("/api/users/:wallet", claimService.GetLearnerProfileHandler)
}
