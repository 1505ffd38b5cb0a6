package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"lumen-finance-backend/internal/config"
	handler "lumen-finance-backend/internal/handlers"
	"lumen-finance-backend/internal/repository"
	"lumen-finance-backend/internal/services/advisor"
	"lumen-finance-backend/internal/services/analytics"
	"lumen-finance-backend/internal/services/assistant"
	"lumen-finance-backend/internal/services/auth"
	"lumen-finance-backend/internal/services/extraction"
	"lumen-finance-backend/internal/services/gmailsync"
	"lumen-finance-backend/internal/services/llm"
	"lumen-finance-backend/internal/services/ocr"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, logger *logrus.Logger) {
	transactionRepo := repository.NewTransactionRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)

	router := llm.NewRouter(cfg, logger)
	extractor := extraction.NewExtractor(router, logger)
	analyzer := analytics.NewAnalyzer(transactionRepo, router, logger)

	toolset := assistant.NewToolset(transactionRepo)
	chatAssistant := assistant.NewAssistant(router, toolset, logger)
	purchaseAdvisor := advisor.NewAdvisor(transactionRepo, router, logger)

	authService := auth.NewService(cfg, logger)
	vision := ocr.NewVisionClient(cfg, logger)
	ocrService := ocr.NewService(vision, logger)

	newSource := func(ctx context.Context, token *oauth2.Token) (gmailsync.MailSource, error) {
		return gmailsync.NewGmailSource(ctx, authService.OAuthConfig(), token)
	}

	authHandler := handler.NewAuthHandler(authService, cfg, logger)
	transactionHandler := handler.NewTransactionHandler(transactionRepo, analyzer)
	receiptHandler := handler.NewReceiptHandler(receiptRepo, newSource, logger)
	syncHandler := handler.NewSyncHandler(newSource, extractor, transactionRepo, receiptRepo, analyzer, logger)
	uploadHandler := handler.NewUploadHandler(ocrService, receiptRepo, analyzer, cfg.UploadDir, logger)
	dashboardHandler := handler.NewDashboardHandler(analyzer, transactionRepo, receiptRepo, logger)
	wishlistHandler := handler.NewWishlistHandler(wishlistRepo, purchaseAdvisor, logger)
	assistantHandler := handler.NewAssistantHandler(chatAssistant, logger)
	debugHandler := handler.NewDebugHandler(transactionRepo, receiptRepo, wishlistRepo)

	// OAuth flow
	r.GET("/auth/google", authHandler.Login)
	r.GET("/oauth2callback", authHandler.Callback)
	r.GET("/logout", authHandler.Logout)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	api.GET("/session", authHandler.Session)

	// Everything below needs a signed-in user.
	protected := api.Group("")
	protected.Use(handler.RequireAuth())

	tx := protected.Group("/transactions")
	tx.GET("", transactionHandler.List)
	tx.GET("/all", transactionHandler.ListAll)
	tx.GET("/:id", transactionHandler.Get)
	tx.POST("", transactionHandler.Create)

	receipts := protected.Group("/receipts")
	receipts.GET("", receiptHandler.List)
	receipts.GET("/:id", receiptHandler.Get)
	receipts.POST("/upload", uploadHandler.Upload)

	protected.GET("/attachments/:messageId/:attachmentId/:filename", receiptHandler.DownloadAttachment)
	protected.POST("/sync", syncHandler.Run)

	protected.GET("/dashboard", dashboardHandler.Dashboard)
	protected.GET("/anomalies", dashboardHandler.Anomalies)

	wishlist := protected.Group("/wishlist")
	wishlist.GET("", wishlistHandler.List)
	wishlist.POST("", wishlistHandler.Create)
	wishlist.DELETE("/:id", wishlistHandler.Delete)
	wishlist.GET("/:id/advice", wishlistHandler.Advice)

	assistantRoutes := protected.Group("/assistant")
	assistantRoutes.GET("/tools", assistantHandler.Tools)
	assistantRoutes.POST("/execute", assistantHandler.Execute)
	assistantRoutes.POST("/chat", assistantHandler.Chat)
	protected.GET("/llm/status", assistantHandler.LLMStatus)

	debug := protected.Group("/debug")
	debug.GET("/transactions", debugHandler.Transactions)
	debug.GET("/receipts", debugHandler.Receipts)
	debug.GET("/stats", debugHandler.Stats)
}
