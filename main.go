package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "jrg-backend/docs"
	"jrg-backend/handlers"
	"jrg-backend/middleware"
	"jrg-backend/repositories"
	"jrg-backend/services"
	"jrg-backend/shared/config"
	"jrg-backend/shared/database"
	"jrg-backend/shared/database/models"
	utils "jrg-backend/shared/utils/auth"
	"jrg-backend/shared/utils/cache"
)

// @title JRG Backend API
// @version 1.0
// @description REST backend for the JRG website: authentication, user management, contact and newsletter

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name auth
// @tag.description Login, logout, token refresh, activation and password reset

// @tag.name users
// @tag.description Admin user management

// @tag.name profile
// @tag.description The authenticated user's own account

// @tag.name contact
// @tag.description Contact form and admin inbox

// @tag.name newsletter
// @tag.description Newsletter subscriptions

// @tag.name activity
// @tag.description Activity log

// @tag.name security
// @tag.description CSRF tokens and abuse mitigation
func main() {
	cfg := config.LoadConfig()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	store, err := cache.NewCacheManager(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer store.Close()

	// Core services
	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.GetJWTExpireDuration(), "jrg-backend")
	emailCipher := utils.NewEmailTokenCipher(cfg.AppSecret)

	userRepo := repositories.NewUserRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)
	blacklistRepo := repositories.NewBlacklistRepository(db)
	oneTimeRepo := repositories.NewOneTimeTokenRepository(db)

	go purgeExpiredBlacklistEntries(blacklistRepo)

	events := services.NewEventHub(cfg.FrontendURL)
	activities := services.NewActivityService(db, events)
	tokens := services.NewTokenService(jwtManager, refreshRepo, blacklistRepo, userRepo, cfg.GetRefreshExpireDuration())
	mailer := services.NewEmailService(cfg)

	var recaptcha services.RecaptchaVerifier
	if cfg.RecaptchaSecretKey != "" {
		recaptcha = services.NewRecaptchaClient(cfg.RecaptchaSecretKey, cfg.GetRecaptchaScoreMinimum(), cfg.GetRecaptchaVerifyTimeout())
	} else {
		log.Println("Warning: RECAPTCHA_SECRET_KEY not set, reCAPTCHA checks are disabled")
	}

	security := services.NewSecurityService(
		store,
		recaptcha,
		activities,
		cfg.GetCSRFTokenTTL(),
		int64(cfg.GetRateLimitMaxRequests()),
		cfg.GetRateLimitWindow(),
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(tokens, userRepo, activities)
	securityHandler := handlers.NewSecurityHandler(security)
	userHandler := handlers.NewUserHandler(db, tokens, oneTimeRepo, mailer, activities)
	profileHandler := handlers.NewProfileHandler(db, userRepo, tokens, activities)
	activationHandler := handlers.NewActivationHandler(db, oneTimeRepo, activities)
	resetHandler := handlers.NewPasswordResetHandler(userRepo, tokens, oneTimeRepo, mailer, activities)
	contactHandler := handlers.NewContactHandler(db, security, mailer, events)
	newsletterHandler := handlers.NewNewsletterHandler(db, security, mailer, events, emailCipher)
	activityHandler := handlers.NewActivityHandler(db)
	wsHandler := handlers.NewWSHandler(events)

	// Middleware
	requireAuth := middleware.RequireAuth(tokens, jwtManager)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)
	generalLimit := middleware.RateLimit(store, middleware.RateLimitConfig{
		Scope:       "general",
		MaxRequests: int64(cfg.GetRateLimitMaxRequests()),
		Window:      cfg.GetRateLimitWindow(),
	})

	loginGate := middleware.SecurityGate(security, "login", services.GateOptions{Recaptcha: true, RecaptchaAction: "login"})
	contactGate := middleware.SecurityGate(security, "contact", services.GateOptions{Recaptcha: true, RecaptchaAction: "contact"})
	newsletterGate := middleware.SecurityGate(security, "newsletter", services.GateOptions{Recaptcha: true, RecaptchaAction: "newsletter"})

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsConfig))

	// Public endpoints
	router.GET("/api/status", authHandler.Status)
	router.GET("/api/security/csrf-token", generalLimit, securityHandler.CSRFToken)
	router.POST("/api/login", loginGate, authHandler.Login)
	router.POST("/api/refresh", generalLimit, authHandler.Refresh)
	router.POST("/api/activate", generalLimit, activationHandler.Activate)
	router.POST("/api/password/reset-request", generalLimit, resetHandler.RequestReset)
	router.POST("/api/password/reset", generalLimit, resetHandler.ResetPassword)
	router.POST("/api/contact", contactGate, contactHandler.Submit)
	router.POST("/api/newsletter/subscribe", newsletterGate, newsletterHandler.Subscribe)
	router.GET("/api/newsletter/unsubscribe", generalLimit, newsletterHandler.Unsubscribe)

	// Authenticated endpoints
	router.POST("/api/logout", requireAuth, authHandler.Logout)
	router.GET("/api/profile", requireAuth, profileHandler.Get)
	router.PUT("/api/profile", requireAuth, profileHandler.Update)
	router.POST("/api/profile/change-password", requireAuth, profileHandler.ChangePassword)
	router.GET("/api/activity/me", requireAuth, activityHandler.ListOwn)

	// Admin endpoints
	admin := router.Group("/api", requireAuth, requireAdmin)
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id", userHandler.Update)
	admin.DELETE("/users/:id", userHandler.Delete)
	admin.POST("/users/:id/block", userHandler.Block)
	admin.POST("/users/:id/resend-activation", userHandler.ResendActivation)
	admin.GET("/contact", contactHandler.List)
	admin.PATCH("/contact/:id", contactHandler.UpdateStatus)
	admin.GET("/newsletter/subscribers", newsletterHandler.List)
	admin.GET("/activity", activityHandler.List)
	admin.GET("/ws/admin", wsHandler.Connect)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "jrg-backend",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Printf("JRG Backend starting on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// purgeExpiredBlacklistEntries prunes naturally expired revocations. Expiry
// is also checked on every lookup, so this only keeps the table small.
func purgeExpiredBlacklistEntries(blacklist *repositories.BlacklistRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if removed, err := blacklist.PurgeExpired(); err != nil {
			log.Printf("❌ Blacklist purge failed: %v", err)
		} else if removed > 0 {
			log.Printf("Blacklist purge removed %d expired entries", removed)
		}
	}
}
