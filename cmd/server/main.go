package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casedeck-backend/internal/config"
	"casedeck-backend/internal/database"
	"casedeck-backend/internal/handlers"
	"casedeck-backend/internal/middleware"
	"casedeck-backend/internal/repository"
	"casedeck-backend/internal/router"
	"casedeck-backend/internal/services"
	"casedeck-backend/internal/storage"
	"casedeck-backend/internal/websocket"
	"casedeck-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting CaseDeck Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 5: Initialize Image Storage ────
	imageStore, err := storage.NewLocalStore(cfg.StoragePath, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("✗ Image storage initialization failed: %v", err)
	}
	log.Println("✓ Image storage ready")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	caseRepo := repository.NewCaseRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	notifier := services.NewRedisNotifier(redisClients.Queue)
	sessionStore := services.NewRedisSessionStore(redisClients.Queue)
	caseService := services.NewCaseService(caseRepo, imageStore, notifier)
	studyService := services.NewStudyService(caseRepo, sessionStore)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	caseHandler := handlers.NewCaseHandler(caseService)
	studyHandler := handlers.NewStudyHandler(studyService)

	// ──── Step 6: Start Image Cleanup Workers ────
	workerPool := worker.NewPool(redisClients.Queue, imageStore, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Cleanup worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		caseHandler,
		studyHandler,
		wsHub,
		imageStore.ImagesDir(),
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ CaseDeck Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
