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

	"revisa-backend/internal/config"
	"revisa-backend/internal/database"
	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/handlers"
	"revisa-backend/internal/middleware"
	"revisa-backend/internal/repository"
	"revisa-backend/internal/router"
	"revisa-backend/internal/services"
	"revisa-backend/internal/websocket"
	"revisa-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Revisa Backend...")

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
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	subjectRepo := repository.NewSubjectRepo(pool)
	summaryRepo := repository.NewSummaryRepo(pool)
	annotationRepo := repository.NewAnnotationRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	flashcardRepo := repository.NewFlashcardRepo(pool)
	difficultyRepo := repository.NewDifficultyRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Initialize Difficulty Engine ────
	recorder := difficulty.NewRecorder(difficultyRepo, annotationRepo)
	analyzer := difficulty.NewAnalyzer(difficultyRepo)
	advisor := difficulty.NewAdvisor(analyzer, difficultyRepo)
	payloadBuilder := difficulty.NewPayloadBuilder(difficultyRepo)
	log.Println("✓ Difficulty engine wired")

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiConcurrentReqs,
		summaryRepo,
		quizRepo,
		flashcardRepo,
		jobRepo,
		difficultyRepo,
		payloadBuilder,
		redisClients.Queue,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Handlers ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	subjectHandler := handlers.NewSubjectHandler(subjectRepo)
	summaryHandler := handlers.NewSummaryHandler(summaryRepo, subjectRepo, annotationRepo)
	quizHandler := handlers.NewQuizHandler(quizRepo, summaryRepo, jobRepo, recorder, redisClients.Queue)
	flashcardHandler := handlers.NewFlashcardHandler(flashcardRepo, summaryRepo, jobRepo, recorder, redisClients.Queue)
	difficultyHandler := handlers.NewDifficultyHandler(recorder, analyzer, advisor, difficultyRepo, summaryRepo, subjectRepo, jobRepo, redisClients.Queue)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		geminiService,
		jobRepo,
		summaryRepo,
		quizRepo,
		flashcardRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret, cfg.FrontendURL)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		subjectHandler,
		summaryHandler,
		quizHandler,
		flashcardHandler,
		difficultyHandler,
		jobHandler,
		wsHub,
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

	log.Printf("✓ Revisa Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
