package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"revisa-backend/internal/handlers"
	"revisa-backend/internal/middleware"
	"revisa-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	subjectHandler *handlers.SubjectHandler,
	summaryHandler *handlers.SummaryHandler,
	quizHandler *handlers.QuizHandler,
	flashcardHandler *handlers.FlashcardHandler,
	difficultyHandler *handlers.DifficultyHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Write-heavy recording endpoints get a per-IP limiter
	recordLimiter := middleware.NewRateLimiter(60, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Subject Routes ────
		r.Route("/subjects", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", subjectHandler.Create)
			r.Get("/", subjectHandler.List)
			r.Get("/{id}", subjectHandler.Get)
			r.Delete("/{id}", subjectHandler.Delete)
		})

		// ──── Summary Routes ────
		r.Route("/summaries", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", summaryHandler.Create)
			r.Get("/", summaryHandler.List)
			r.Get("/{id}", summaryHandler.Get)
			r.Delete("/{id}", summaryHandler.Delete)
			r.Put("/{id}/favorite", summaryHandler.ToggleFavorite)
			r.Get("/{id}/annotations", summaryHandler.ListAnnotations)
		})

		// ──── Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/generate", quizHandler.Generate)
			r.Get("/", quizHandler.List)
			r.Get("/{id}", quizHandler.Get)
			r.Delete("/{id}", quizHandler.Delete)
			r.Post("/{id}/start", quizHandler.StartAttempt)
		})

		r.Route("/quiz-attempts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/{id}/submit", quizHandler.SubmitAttempt)
			r.Get("/{id}", quizHandler.GetAttempt)
		})

		// ──── Flashcard Routes ────
		r.Route("/flashcards", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/generate", flashcardHandler.Generate)

			r.Route("/decks", func(r chi.Router) {
				r.Get("/", flashcardHandler.ListDecks)
				r.Get("/{id}", flashcardHandler.GetDeck)
				r.Delete("/{id}", flashcardHandler.DeleteDeck)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Post("/{id}/rating", flashcardHandler.RateCard)
			})
		})

		// ──── Difficulty Routes ────
		r.Route("/difficulties", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(recordLimiter.Middleware)
				r.Post("/quiz", difficultyHandler.RecordQuiz)
				r.Post("/flashcard", difficultyHandler.RecordFlashcard)
				r.Post("/summary", difficultyHandler.RecordSummary)
			})

			r.Get("/", difficultyHandler.List)
			r.Get("/analysis", difficultyHandler.Analysis)
			r.Get("/gaps", difficultyHandler.Gaps)
			r.Get("/personalized-summary/check", difficultyHandler.CheckPersonalizedSummary)
			r.Post("/personalized-summary", difficultyHandler.GeneratePersonalizedSummary)
			r.Post("/{id}/resolve", difficultyHandler.Resolve)
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/difficulties", difficultyHandler.Dashboard)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
