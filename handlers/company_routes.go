package handlers

import (
	"edu-fund-system/middleware"
	"edu-fund-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCompanyRoutes(app *fiber.App, companyService *services.CompanyService) {
	app.Post("/api/company/register", companyService.RegisterHandler)
	app.Post("/api/company/login", companyService.LoginHandler)

	// 🔐 Pool management requires a company session
	pools := app.Group("/api/pools", middleware.CompanyAuthMiddleware(companyService.JWTSecret))
	pools.Post("/create", companyService.CreatePoolHandler)
	pools.Get("/list", companyService.ListPoolsHandler)
	pools.Get("/:id", companyService.GetPoolHandler)
	pools.Delete("/:id", companyService.ClosePoolHandler)
}
