package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"mitrabot/backend/internal/api/handler"
	"mitrabot/backend/internal/config"
	"mitrabot/backend/internal/intake"
	"mitrabot/backend/internal/localization"
	"mitrabot/backend/internal/media"
	"mitrabot/backend/internal/models"
	"mitrabot/backend/internal/storage"
	"mitrabot/backend/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Complaint{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Mitra bot backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	store := storage.NewStorageService(db, rdb)

	localizer, err := localization.NewLocalizer(cfg.LocalizationDir)
	if err != nil {
		log.Fatalf("Failed to load localization catalog: %v", err)
	}

	notifier := whatsapp.NewClient(cfg.WhatsAppTextURL, cfg.WhatsAppTemplateURL)
	uploader := media.NewGatewayUploader(cfg.MediaUploadURL, cfg.MediaPublicBaseURL)

	svc := intake.NewService(store, notifier, uploader, localizer, cfg.Templates, cfg.PublicBaseURL)

	r := gin.Default()
	h := handler.NewHandler(svc)

	r.GET("/healthz", h.Healthz)
	r.POST("/api/new-complaint", h.HandleInbound)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
