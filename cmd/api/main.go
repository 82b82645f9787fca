package main

import (
	"context"
	"log"

	_ "claimdesk/api/swagger" // swagger docs
	"claimdesk/internal/analytics"
	"claimdesk/internal/config"
	"claimdesk/internal/database"
	"claimdesk/internal/eventbus"
	"claimdesk/internal/fraud"
	"claimdesk/internal/handler"
	"claimdesk/internal/jobs"
	"claimdesk/internal/middleware"
	"claimdesk/internal/notify"
	"claimdesk/internal/refresh"
	"claimdesk/internal/repository"
	"claimdesk/internal/service"
	"claimdesk/internal/store"
	"claimdesk/internal/websocket"
	"claimdesk/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Claimdesk API
// @version         1.0
// @description     Expense claim submission, approval workflow, fraud scoring and approval analytics.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Event bus: the single cross-view invalidation channel
	bus := eventbus.New()

	// Notification sink: Redis when configured, process log otherwise
	var sink notify.Sink = notify.LogSink{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		sink = notify.NewRedisSink(client, cfg.RedisChannel)
	}
	notifier := notify.NewNotifier(sink, bus)

	// Repositories (Repository -> Store/Workflow -> Handler)
	txManager := repository.NewTransactionManager(db)
	claimRepo := repository.NewClaimRepository(db)
	userRepo := repository.NewUserRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	eventRepo := repository.NewApprovalEventRepository(db)

	// Core engine
	scorer := fraud.NewScorer(cfg.Fraud)
	claimStore := store.New(claimRepo, bus, scorer)
	if err := claimStore.Load(context.Background()); err != nil {
		log.Printf("WARNING: initial claim load failed, starting with empty store: %v", err)
	}
	wf := workflow.New(claimStore, eventRepo, notifier)
	aggregator := analytics.New(claimStore, budgetRepo)
	coordinator := refresh.NewCoordinator(bus, cfg.FetchTimeout)

	// Periodic durable-store resync
	resync := jobs.NewResyncJob(claimStore, bus, cfg.ResyncInterval)
	if err := resync.Start(); err != nil {
		log.Printf("WARNING: resync job not scheduled: %v", err)
	}
	defer resync.Stop()

	// WebSocket hub bridges bus events to browser surfaces
	wsHub := websocket.NewHub()
	wsHub.BindBus(bus)
	go wsHub.Run()

	userService := service.NewUserService(userRepo)
	budgetService := service.NewBudgetService(txManager, budgetRepo)

	// Handlers
	claimHandler := handler.NewClaimHandler(claimStore, coordinator)
	approvalHandler := handler.NewApprovalHandler(wf, eventRepo)
	analyticsHandler := handler.NewAnalyticsHandler(aggregator, budgetService)
	userHandler := handler.NewUserHandler(userService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	claimHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	analyticsHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
