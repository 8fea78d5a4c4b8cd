package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/middleware"
	"revisa-backend/internal/models"
	"revisa-backend/internal/repository"
)

type FlashcardHandler struct {
	flashRepo   flashcardRepository
	summaryRepo summaryRepository
	jobRepo     *repository.JobRepo
	recorder    *difficulty.Recorder
	redis       *redis.Client
}

type flashcardRepository interface {
	CreateDeck(ctx context.Context, d *models.FlashcardDeck) error
	GetDeckByID(ctx context.Context, id uuid.UUID) (*models.FlashcardDeck, error)
	ListDecksBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*models.FlashcardDeck, error)
	DeleteDeck(ctx context.Context, id uuid.UUID) error
	GetCardByID(ctx context.Context, id uuid.UUID) (*models.FlashcardCard, error)
	GetCardsByDeck(ctx context.Context, deckID uuid.UUID) ([]models.FlashcardCard, error)
	RateCard(ctx context.Context, cardID uuid.UUID, rating int) error
}

func NewFlashcardHandler(flashRepo flashcardRepository, summaryRepo summaryRepository, jobRepo *repository.JobRepo, recorder *difficulty.Recorder, redisClient *redis.Client) *FlashcardHandler {
	return &FlashcardHandler{
		flashRepo:   flashRepo,
		summaryRepo: summaryRepo,
		jobRepo:     jobRepo,
		recorder:    recorder,
		redis:       redisClient,
	}
}

// Generate creates an empty deck and queues the card-generation job.
func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateFlashcardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if req.NumCards <= 0 || req.NumCards > 50 {
		req.NumCards = 15
	}

	summary, err := h.summaryRepo.GetByID(r.Context(), req.SummaryID)
	if err != nil || summary.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Summary not found", r))
		return
	}

	title := req.Title
	if title == "" {
		title = "Flashcards: " + summary.Title
	}

	configBytes, _ := json.Marshal(req)
	deck := &models.FlashcardDeck{
		UserID:     userID,
		SubjectID:  summary.SubjectID,
		SummaryID:  &summary.ID,
		Title:      title,
		ConfigJSON: configBytes,
	}

	if err := h.flashRepo.CreateDeck(r.Context(), deck); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create deck", r))
		return
	}

	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypeFlashcardGeneration,
		ReferenceID: deck.ID,
		ConfigJSON:  configBytes,
	}

	if err := enqueueJob(r.Context(), h.jobRepo, h.redis, job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue flashcard job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  job.ID,
		"deck_id": deck.ID,
	})
}

func (h *FlashcardHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjectID, err := uuid.Parse(r.URL.Query().Get("subject_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject_id query param is required", r))
		return
	}

	decks, err := h.flashRepo.ListDecksBySubject(r.Context(), userID, subjectID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch decks", r))
		return
	}
	if decks == nil {
		decks = []*models.FlashcardDeck{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

func (h *FlashcardHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	cards, err := h.flashRepo.GetCardsByDeck(r.Context(), deck.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}
	if cards == nil {
		cards = []models.FlashcardCard{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deck":  deck,
		"cards": cards,
	})
}

func (h *FlashcardHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	if err := h.flashRepo.DeleteDeck(r.Context(), deck.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete deck", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deck deleted"})
}

// RateCard applies the spaced-repetition rating. Rating 0 means "I don't
// know" and additionally records a difficulty event; that recording is
// best-effort and never fails the rating itself.
func (h *FlashcardHandler) RateCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return
	}

	var req models.CardRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Rating < 0 || req.Rating > 3 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"rating": "rating must be between 0 and 3"}, r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	card, err := h.flashRepo.GetCardByID(r.Context(), cardID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Card not found", r))
		return
	}

	deck, err := h.flashRepo.GetDeckByID(r.Context(), card.DeckID)
	if err != nil || deck.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Card not found", r))
		return
	}

	if err := h.flashRepo.RateCard(r.Context(), cardID, req.Rating); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save rating", r))
		return
	}

	difficultyRecorded := false
	if req.Rating == 0 {
		fc := &difficulty.Flashcard{
			ID:       card.ID,
			Front:    card.Front,
			Topic:    card.Topic,
			Subtopic: derefString(card.Subtopic),
		}
		if _, recErr := h.recorder.RecordFlashcard(r.Context(), userID, deck.SubjectID, fc); recErr != nil {
			log.Printf("failed to record flashcard difficulty for card %s: %v", card.ID, recErr)
		} else {
			difficultyRecorded = true
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":             "Rating saved",
		"difficulty_recorded": difficultyRecorded,
	})
}

func (h *FlashcardHandler) ownedDeck(w http.ResponseWriter, r *http.Request) (*models.FlashcardDeck, bool) {
	deckID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid deck ID", r))
		return nil, false
	}

	deck, err := h.flashRepo.GetDeckByID(r.Context(), deckID)
	if err != nil || deck.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Deck not found", r))
		return nil, false
	}

	return deck, true
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
