package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/roomies-backend/internal/api/handlers"
	"github.com/princeprakhar/roomies-backend/internal/api/middleware"
	"github.com/princeprakhar/roomies-backend/internal/config"
	"github.com/princeprakhar/roomies-backend/internal/moderation"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Infrastructure holds the backends the API runs on. Redis and Photos are
// optional.
type Infrastructure struct {
	Store  store.Store
	Redis  *redis.Client
	Photos services.PhotoStorage
}

func SetupRoutes(router *gin.Engine, infra Infrastructure, cfg *config.Config) {
	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(cfg, infra.Redis)...)

	var (
		sanctions services.SanctionCache = services.NewLocalSanctionCache()
		broker    services.ChatBroker    = services.NewLocalChatBroker()
		mailer    services.Mailer
		validator services.EmailValidator
	)
	if infra.Redis != nil {
		sanctions = services.NewRedisSanctionCache(infra.Redis)
		broker = services.NewRedisChatBroker(infra.Redis)
	}
	if cfg.SMTPUsername != "" {
		mailer = services.NewEmailService(cfg)
	} else {
		logger.Warn("SMTP is not configured, emails will not be sent")
	}
	if cfg.AbstractEmailAPIKey != "" {
		validator = services.NewValidationService(cfg.AbstractEmailAPIKey)
	}
	moderator := moderation.New()

	// Initialize services
	authService := services.NewAuthService(infra.Store, cfg.JWTSecret, validator, mailer, sanctions)
	profileService := services.NewProfileService(infra.Store, infra.Photos)
	matchService := services.NewMatchService(infra.Store)
	revealService := services.NewRevealService(infra.Store, matchService)
	reviewService := services.NewReviewService(infra.Store, infra.Store)
	reportService := services.NewReportService(infra.Store, infra.Store, cfg.ReportWarningThreshold)
	chatService := services.NewChatService(infra.Store, matchService, moderator, broker, cfg.ModerationMode)
	adminService := services.NewAdminService(infra.Store, sanctions, mailer, moderator)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	passwordHandler := handlers.NewPasswordHandler(authService)
	userHandler := handlers.NewUserHandler(profileService)
	matchHandler := handlers.NewMatchHandler(matchService)
	revealHandler := handlers.NewRevealHandler(revealService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	reportHandler := handlers.NewReportHandler(reportService)
	chatHandler := handlers.NewChatHandler(chatService, cfg.CORSOrigins)
	adminHandler := handlers.NewAdminHandler(adminService, profileService)

	requireAuth := middleware.AuthMiddleware(cfg.JWTSecret, sanctions)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
	})

	// API routes
	api := router.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
	})

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh-token", authHandler.RefreshToken)
		auth.POST("/verify-email", requireAuth, authHandler.VerifyEmail)
		auth.POST("/resend-verification", requireAuth, authHandler.ResendVerification)
		auth.POST("/change-password", requireAuth, passwordHandler.ChangePassword)
	}

	// Password reset routes
	passwordGroup := api.Group("/password")
	{
		passwordGroup.POST("/forgot", passwordHandler.ForgotPassword)
		passwordGroup.POST("/reset", passwordHandler.ResetPassword)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("/me", userHandler.GetMe)
		users.PUT("/me", userHandler.UpdateMe)
		users.POST("/me/photos", userHandler.UploadPhoto)
		users.DELETE("/me/photos", userHandler.DeletePhoto)
		users.GET("/:username", userHandler.GetProfile)
	}

	matches := api.Group("/matches", requireAuth)
	{
		matches.GET("", matchHandler.ListMatches)
		matches.GET("/candidates", matchHandler.Candidates)
		matches.POST("/swipe", matchHandler.Swipe)
		matches.DELETE("/:username", matchHandler.Unmatch)
	}

	blocks := api.Group("/blocks", requireAuth)
	{
		blocks.POST("", matchHandler.Block)
		blocks.DELETE("/:username", matchHandler.Unblock)
	}

	reveal := api.Group("/reveal", requireAuth)
	{
		reveal.POST("", revealHandler.Reveal)
		reveal.GET("/:username", revealHandler.Status)
	}

	// Review routes
	reviews := api.Group("/reviews", requireAuth)
	{
		reviews.POST("", reviewHandler.CreateReview)
		reviews.GET("/eligibility/:username", reviewHandler.Eligibility)
		reviews.GET("/user/:username", reviewHandler.GetUserReviews)
		reviews.GET("/user/:username/stats", reviewHandler.GetUserStats)
	}

	api.POST("/reports", requireAuth, reportHandler.CreateReport)

	chats := api.Group("/chats", requireAuth)
	{
		chats.GET("", chatHandler.ListChats)
		chats.POST("/messages", chatHandler.SendMessage)
		chats.GET("/:chat_id", chatHandler.GetChat)
		chats.POST("/:chat_id/read", chatHandler.MarkRead)
		chats.GET("/:chat_id/stream", chatHandler.Stream)
	}

	// Admin routes
	admin := api.Group("/admin", requireAuth, middleware.AdminOnly())
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)

		admin.GET("/reports", adminHandler.GetReports)
		admin.GET("/reports/:report_id", adminHandler.GetReport)
		admin.PUT("/reports/:report_id", adminHandler.UpdateReport)

		admin.POST("/users/:username/action", adminHandler.UserAction)
		admin.PUT("/users/:username/premium", adminHandler.SetPremium)

		// Review moderation
		admin.GET("/reviews/pending", reviewHandler.GetPendingReviews)
		admin.POST("/reviews/:review_id/moderate", reviewHandler.ModerateReview)

		admin.POST("/moderation/check", adminHandler.CheckContent)
	}

	logger.Info("Routes initialized successfully")
}
