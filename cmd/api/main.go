package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/auction"
	"dreambid/internal/auth"
	"dreambid/internal/cleanup"
	"dreambid/internal/config"
	"dreambid/internal/database"
	"dreambid/internal/handlers"
	"dreambid/internal/interest"
	"dreambid/internal/metrics"
	"dreambid/internal/middleware"
	"dreambid/internal/ratelimit"
	"dreambid/internal/scheduler"
	"dreambid/internal/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	defaultConfigPath := os.Getenv("CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "config/config.yaml"
	}
	configPath := pflag.String("config", defaultConfigPath, "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v, using defaults", *configPath, err)
		cfg = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", *configPath)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Printf("Connected to %s database", cfg.Database.Type)

	authService := auth.NewService(db.DB(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err := authService.EnsureAdmin(context.Background(), cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Printf("Warning: Failed to ensure admin account: %v", err)
	}

	activityService := activity.NewService(db.DB())
	events := activity.NewLogger(activityService, activity.LoggerOptions{
		BufferSize:   cfg.Activity.QueueBufferSize,
		WriteTimeout: cfg.Activity.WriteTimeout(),
	})
	events.Start()
	defer events.Stop()

	clock := func() time.Time { return time.Now().UTC() }
	reconciler := auction.NewReconciler(db.DB(), auction.WithClock(clock))
	cleaner := cleanup.NewService(db.DB(), cleanup.WithClock(clock), cleanup.WithEventLogger(events))
	tracker := interest.NewTracker(db.DB())

	sched := scheduler.NewScheduler(cfg, reconciler, cleaner)
	if cfg.Scheduler.Enabled {
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	} else {
		log.Println("Scheduler disabled, running a single auction reconcile")
		reconciler.Run(context.Background())
	}

	// Search is optional; handlers must see a nil interface when it is off
	var index handlers.SearchIndex
	if cfg.Search.Meilisearch.Enabled() {
		client := search.NewSearchClient(cfg.Search.Meilisearch.Host, cfg.Search.Meilisearch.APIKey, cfg.Search.Meilisearch.Index)
		if !client.Healthy() {
			log.Printf("Warning: Meilisearch at %s is not healthy, search disabled", cfg.Search.Meilisearch.Host)
		} else if err := client.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		} else {
			index = client
			log.Printf("Meilisearch connected: %s", cfg.Search.Meilisearch.Host)
		}
	}

	limiter := ratelimit.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.Enabled)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	if cfg.Logging.LogRequests {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(r, handlers.Deps{
		DB:         db,
		Auth:       authService,
		Activity:   activityService,
		Events:     events,
		Reconciler: reconciler,
		Tracker:    tracker,
		Jobs:       sched,
		Retention:  cleaner,
		Search:     index,
		Limiter:    limiter,
		Now:        clock,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
