package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/schoolgate/pickup-api/api/swagger"
	"github.com/schoolgate/pickup-api/internal/handler"
	"github.com/schoolgate/pickup-api/internal/middleware"
	"github.com/schoolgate/pickup-api/internal/models"
	"github.com/schoolgate/pickup-api/internal/repository"
	"github.com/schoolgate/pickup-api/internal/service"
	"github.com/schoolgate/pickup-api/internal/wechat"
	"github.com/schoolgate/pickup-api/pkg/cache"
	"github.com/schoolgate/pickup-api/pkg/config"
	"github.com/schoolgate/pickup-api/pkg/database"
	"github.com/schoolgate/pickup-api/pkg/logger"
	corsmiddleware "github.com/schoolgate/pickup-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schoolgate/pickup-api/pkg/middleware/requestid"
	"github.com/schoolgate/pickup-api/pkg/storage"
)

// @title School Pickup API
// @version 1.0.0
// @description Backend for the school child-pickup tracking mini-program and console
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.PublicBasePath, cfg.Uploads.AllowedExtensions)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()
	wechatClient := wechat.NewClient(cfg.WeChat, logr)

	guardianRepo := repository.NewGuardianRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	childRepo := repository.NewChildRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	pickupRepo := repository.NewPickupRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)

	metricsSvc := service.NewMetricsService()
	identitySvc := service.NewIdentityService(guardianRepo, staffRepo, linkRepo, logr)
	authSvc := service.NewAuthService(adminRepo, sessionRepo, validate, logr, service.AuthConfig{
		SessionSecret: cfg.Session.Secret,
		SessionTTL:    cfg.Session.TTL,
		Issuer:        cfg.Session.Issuer,
	})
	childSvc := service.NewChildService(childRepo, validate, logr)
	rosterSvc := service.NewRosterService(guardianRepo, staffRepo, childRepo, linkRepo, uploads, validate, logr)
	notifySvc := service.NewNotificationService(wechatClient, cfg.WeChat, cfg.Notifications, metricsSvc, logr)
	pickupSvc := service.NewPickupService(pickupRepo, childRepo, linkRepo, uploads, notifySvc, metricsSvc, validate, logr)
	exportSvc := service.NewExportService(pickupRepo, nil, nil, logr)

	notifySvc.Start(context.Background())
	defer notifySvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	childHandler := handler.NewChildHandler(childSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc, exportSvc)
	pickupHandler := handler.NewPickupHandler(pickupSvc)
	meHandler := handler.NewMeHandler(rosterSvc)
	wechatHandler := handler.NewWeChatHandler(wechatClient, identitySvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static(cfg.Uploads.PublicBasePath, uploads.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/wechat/login", wechatHandler.Login)

	wx := api.Group("/wechat")
	wx.GET("/callback", wechatHandler.Verify)
	wx.POST("/callback", wechatHandler.Callback)

	me := api.Group("/me", middleware.RequireRole(identitySvc, models.RoleAny))
	me.GET("", meHandler.Profile)
	me.POST("/avatar", meHandler.SetAvatar)

	staff := api.Group("/staff", middleware.RequireRole(identitySvc, models.RoleStaff))
	staff.GET("/children", childHandler.List)
	staff.POST("/pickups", pickupHandler.Record)
	staff.GET("/pickups", pickupHandler.ListForStaff)

	parent := api.Group("/parent", middleware.RequireRole(identitySvc, models.RoleGuardian))
	parent.GET("/children", pickupHandler.Children)
	parent.GET("/pickups", pickupHandler.ListForGuardian)
	parent.GET("/pickups/:id", pickupHandler.GetForGuardian)

	admin := api.Group("/admin")
	admin.POST("/login", authHandler.Login)
	admin.POST("/logout", authHandler.Logout)

	console := admin.Group("", middleware.RequireAdmin(authSvc))
	console.GET("/children", childHandler.List)
	console.POST("/children", childHandler.Create)
	console.GET("/children/:id", childHandler.Get)
	console.PUT("/children/:id", childHandler.Update)
	console.DELETE("/children/:id", childHandler.Delete)
	console.GET("/guardians", rosterHandler.ListGuardians)
	console.POST("/guardians", rosterHandler.CreateGuardian)
	console.GET("/staff", rosterHandler.ListStaff)
	console.POST("/staff", rosterHandler.CreateStaff)
	console.POST("/links", rosterHandler.Bind)
	console.DELETE("/links", rosterHandler.Unbind)
	console.GET("/pickups", pickupHandler.ListForStaff)
	console.GET("/pickups/export", rosterHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
