package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"edu-fund-system/handlers"
	"edu-fund-system/models"
	"edu-fund-system/services"
	"edu-fund-system/utils"
	"edu-fund-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // 50MB, course materials can be large
	})

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError so duplicate-key violations surface as
	// gorm.ErrDuplicatedKey — the completion uniqueness guard relies on it
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitR2(); err != nil {
		log.Printf("⚠️  R2 not configured (%v) — course materials will be stored locally", err)
		if err := utils.EnsureUploadDir(); err != nil {
			log.Fatal("failed to ensure upload dir:", err)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	poolContract := os.Getenv("COMPANY_POOL_CONTRACT")
	if poolContract == "" {
		log.Println("⚠️  COMPANY_POOL_CONTRACT not set — pool creation responses will omit the contract address")
	}

	// The signer must be the ledger account the reward contracts trust.
	// A missing key degrades completion to "recorded but unsigned".
	signerKey := os.Getenv("SIGNER_PRIVATE_KEY")
	if signerKey == "" {
		signerKey = os.Getenv("PRIVATE_KEY")
	}
	signer, err := services.NewSignerService(signerKey)
	if err != nil {
		log.Fatal("failed to load signer key:", err)
	}
	if signer.HasKey() {
		log.Printf("🔐 Signer wallet initialized: %s", signer.Address().Hex())
	} else {
		log.Println("⚠️  No SIGNER_PRIVATE_KEY found — claim tickets will not be signed!")
	}

	ticketService := services.NewTicketService(signer)
	claimService := services.NewClaimService(db, ticketService)
	questService := services.NewQuestService(db)
	companyService := services.NewCompanyService(db, []byte(jwtSecret), poolContract)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional: watch claim transactions on the ledger
	if ledgerClient, err := workers.NewLedgerWatchClient(db); err != nil {
		log.Printf("⚠️  Ledger watcher disabled: %v", err)
	} else {
		go workers.PollReceipts(ctx, ledgerClient, 30*time.Second)
	}

	companyService.StartPoolAuditScheduler()

	handlers.SetupQuestRoutes(app, questService, claimService)
	handlers.SetupRewardRoutes(app, claimService)
	handlers.SetupCompanyRoutes(app, companyService)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "message": "EduFund API is running"})
	})

	app.Static("/uploads", "./uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("🚀 Server running on http://localhost:%s", port)
	log.Println("✅ Pool audit scheduler running")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
