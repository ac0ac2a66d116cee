package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Shreshtthh/MetaScore/config"
	"github.com/Shreshtthh/MetaScore/controllers"
	"github.com/Shreshtthh/MetaScore/middleware"
	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(core *services.Core) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Source-Address", "X-Source-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(core)
	recordController := controllers.NewRecordController(core)
	trackerController := controllers.NewTrackerController(core)
	sourceController := controllers.NewSourceController(core)
	activityController := controllers.NewActivityController(core)
	statsController := controllers.NewStatsController(core)

	api := r.Group("/api/v1")
	api.GET("/info", statsController.Info)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.GET("/nonce", authController.Nonce)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	records := api.Group("/records")
	records.POST("", middleware.AuthRequired(), recordController.Mint)
	records.GET("/by-owner/:address", recordController.ByOwner)
	records.GET("/:id", recordController.Get)
	records.GET("/:id/categories", recordController.Categories)
	records.GET("/:id/categories/:category", recordController.Category)
	records.GET("/:id/metadata", recordController.Metadata)
	records.GET("/:id/token-uri", recordController.TokenURI)
	records.GET("/:id/activities", recordController.Activities)
	records.POST("/:id/score", middleware.AuthRequired(), recordController.UpdateScore)
	records.POST("/:id/transfer", recordController.TransferDisabled)
	records.POST("/:id/approve", recordController.TransferDisabled)

	trackers := api.Group("/trackers")
	trackers.GET("", trackerController.List)
	trackers.GET("/:address", trackerController.Get)
	trackers.PUT("/:address", middleware.AuthRequired(), trackerController.Authorize)

	sources := api.Group("/sources")
	sources.GET("", sourceController.List)
	sources.POST("/batch", middleware.AuthRequired(), sourceController.VerifyBatch)
	sources.GET("/:address", sourceController.Get)
	sources.PUT("/:address", middleware.AuthRequired(), sourceController.Verify)
	sources.DELETE("/:address", middleware.AuthRequired(), sourceController.Revoke)
	sources.POST("/:address/key", middleware.AuthRequired(), sourceController.IssueKey)

	api.POST("/activities", middleware.RateLimitMiddleware(), middleware.SourceRequired(core.Tracker), activityController.Track)

	api.GET("/leaderboard", statsController.Leaderboard)
	api.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
