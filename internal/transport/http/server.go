package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusmantri/internal/cache"
	"campusmantri/internal/config"
	"campusmantri/internal/database"
	"campusmantri/internal/handler"
	"campusmantri/internal/pending"
	"campusmantri/internal/queue"
	"campusmantri/internal/redis"
	"campusmantri/internal/repository"
	"campusmantri/internal/service"
	"campusmantri/internal/session"
	"campusmantri/internal/worker"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := redisClient.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 4. Repositories
	identityRepo := repository.NewIdentityRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 5. Redis-backed infrastructure
	pendingStore := pending.NewRedisStore(redisClient.Client, time.Duration(cfg.PendingProfileMaxAge)*time.Second)
	activityPublisher := queue.NewPublisher(redisClient.Client)
	activityConsumer := queue.NewConsumer(redisClient.Client)
	leaderboard := cache.NewLeaderboard(redisClient.Client)

	// 6. Session event bus
	bus := session.NewBroadcaster()

	// 7. Services
	identityService := service.NewIdentityService(identityRepo, profileRepo, pendingStore, bus)
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	profileService := service.NewProfileService(profileRepo, activityPublisher)

	// 8. Activity workers (leaderboard maintenance)
	workerManager := worker.NewManager(
		activityConsumer,
		worker.NewHandler(leaderboard, profileRepo),
		worker.ManagerConfig{WorkerCount: cfg.ActivityWorkerCount},
	)
	if err := workerManager.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start activity workers: %w", err)
	}
	defer workerManager.Stop()

	// Audit trail of session events. The subscription lives for the
	// process lifetime, so the cancel func is discarded.
	events, _ := bus.Subscribe(16)
	go func() {
		for event := range events {
			if event.Identity != nil {
				log.Printf("[Session] %s: %s", event.Type, event.Identity.Email)
			} else {
				log.Printf("[Session] %s", event.Type)
			}
		}
	}()

	// 9. Handlers
	authHandler := handler.NewAuthHandler(identityService, authService)
	profileHandler := handler.NewProfileHandler(profileService, identityService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboard, profileRepo)

	// 10. Router
	router := NewRouter(RouterConfig{
		AuthHandler:        authHandler,
		ProfileHandler:     profileHandler,
		LeaderboardHandler: leaderboardHandler,
		JWTSecret:          cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 11. Serve with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("Received signal %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
