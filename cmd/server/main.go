package main

import (
	"time"

	"lumen-finance-backend/internal/config"
	"lumen-finance-backend/internal/logging"
	"lumen-finance-backend/internal/models"
	"lumen-finance-backend/internal/routes"
	"lumen-finance-backend/internal/services/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	logger := logging.SetupLogging()

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, relying on system env")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	defer func() {
		if err := config.CloseDB(db); err != nil {
			logger.WithError(err).Warn("database close failed")
		}
	}()

	if err := db.AutoMigrate(
		&models.Transaction{},
		&models.Receipt{},
		&models.WishlistItem{},
	); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	r := gin.Default()

	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(auth.SessionName, store))

	routes.RegisterRoutes(r, db, cfg, logger)

	logger.WithField("addr", cfg.HTTPAddr).Info("starting server")
	// Error, not Fatal, so the deferred database close still runs.
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.WithError(err).Error("server stopped")
	}
}
