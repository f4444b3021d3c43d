package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"daily-challenge-pack/handlers"
	"daily-challenge-pack/middleware"
	"daily-challenge-pack/models"
	"daily-challenge-pack/services"
	"daily-challenge-pack/utils"
	"daily-challenge-pack/workers"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 100 * 1024 * 1024, // 100MB — frontend bundle uploads
	})

	// 🔐❗ GLOBAL: Only host Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

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
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Name, X-User-Roles, X-Session-Token, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// The pack owns an isolated SQLite database — nothing else reads or
	// writes it.
	dbPath := os.Getenv("PACK_DATABASE_PATH")
	if dbPath == "" {
		log.Println("⚠️  PACK_DATABASE_PATH not set, using default: data/pack.db")
		dbPath = "data/pack.db"
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		log.Fatal("failed to ensure database dir:", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to open pack database:", err)
	}

	if err := db.AutoMigrate(
		&models.ScoreRecord{},
		&models.LeaderboardSnapshot{},
		&models.PackUser{},
		&models.PackSetting{},
	); err != nil {
		log.Fatal("failed to migrate pack database:", err)
	}

	challengeService := services.NewChallengeService(db, services.NewPackUserStore(db))
	packService := services.NewPackService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Optional: mirror host user profiles for display names ---
	hostSyncURL := os.Getenv("HOST_SYNC_URL")
	if hostSyncURL != "" {
		syncWorker := workers.NewPackUserSyncWorker(db, hostSyncURL, "/api/v1/public/profiles", os.Getenv("PACK_SERVICE_TOKEN"))
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  HOST_SYNC_URL not set — leaderboards will use submitted usernames only")
	}

	// --- Optional: R2 asset storage for the pack logo ---
	if os.Getenv("R2_BUCKET_NAME") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2_BUCKET_NAME not set — logo uploads disabled")
	}

	challengeService.StartSnapshotScheduler()

	// ✅ Setup routes — enforced Gateway auth everywhere, user context on secured groups
	handlers.SetupChallengeRoutes(app, challengeService)
	handlers.SetupPackRoutes(app, packService)

	if err := os.MkdirAll(services.FrontendHostDir, os.ModePerm); err != nil {
		log.Fatal("failed to ensure frontend host dir:", err)
	}
	app.Static("/frontend", "./"+services.FrontendHostDir)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Daily challenge pack running on http://localhost:%s", port)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from the host Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down pack server...")
	_ = app.Shutdown()
}
