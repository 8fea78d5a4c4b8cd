package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/middleware"
	"revisa-backend/internal/models"
	"revisa-backend/internal/repository"
)

// DifficultyHandler exposes the difficulty tracker: recording "I don't
// know" signals, reading the per-subject analysis, and kicking off
// personalized remediation summaries.
type DifficultyHandler struct {
	recorder       *difficulty.Recorder
	analyzer       *difficulty.Analyzer
	advisor        *difficulty.Advisor
	difficultyRepo difficultyEventRepository
	summaryRepo    summaryRepository
	subjectRepo    subjectRepository
	jobRepo        *repository.JobRepo
	redis          *redis.Client
}

type difficultyEventRepository interface {
	ListEvents(ctx context.Context, userID, subjectID uuid.UUID, filter difficulty.EventFilter) ([]models.DifficultyEvent, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*models.DifficultyEvent, error)
	MarkResolved(ctx context.Context, eventID uuid.UUID) error
}

type subjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subject, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subject, error)
}

func NewDifficultyHandler(
	recorder *difficulty.Recorder,
	analyzer *difficulty.Analyzer,
	advisor *difficulty.Advisor,
	difficultyRepo difficultyEventRepository,
	summaryRepo summaryRepository,
	subjectRepo subjectRepository,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) *DifficultyHandler {
	return &DifficultyHandler{
		recorder:       recorder,
		analyzer:       analyzer,
		advisor:        advisor,
		difficultyRepo: difficultyRepo,
		summaryRepo:    summaryRepo,
		subjectRepo:    subjectRepo,
		jobRepo:        jobRepo,
		redis:          redisClient,
	}
}

// RecordQuiz registers a difficulty from a quiz question directly, for
// clients that track "I don't know" outside of a scored attempt.
func (h *DifficultyHandler) RecordQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectID uuid.UUID           `json:"subject_id"`
		Question  models.QuizQuestion `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	event, err := h.recorder.RecordQuiz(r.Context(), userID, req.SubjectID, &req.Question)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// RecordFlashcard registers a difficulty from a flashcard front.
func (h *DifficultyHandler) RecordFlashcard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectID uuid.UUID `json:"subject_id"`
		Card      struct {
			ID       uuid.UUID `json:"id"`
			Front    string    `json:"front"`
			Question string    `json:"question"`
			Topic    string    `json:"topic"`
			Subtopic string    `json:"subtopic"`
			Concepts []string  `json:"concepts"`
		} `json:"card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	event, err := h.recorder.RecordFlashcard(r.Context(), userID, req.SubjectID, &difficulty.Flashcard{
		ID:       req.Card.ID,
		Front:    req.Card.Front,
		Question: req.Card.Question,
		Topic:    req.Card.Topic,
		Subtopic: req.Card.Subtopic,
		Concepts: req.Card.Concepts,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// RecordSummary registers a "didn't understand" highlight on a summary.
// The annotation and the difficulty event come back together.
func (h *DifficultyHandler) RecordSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SummaryID   uuid.UUID `json:"summary_id"`
		Text        string    `json:"text"`
		Start       *int      `json:"position_start"`
		End         *int      `json:"position_end"`
		ParagraphID *string   `json:"paragraph_id"`
		Note        *string   `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	summary, err := h.summaryRepo.GetByID(r.Context(), req.SummaryID)
	if err != nil || summary.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Summary not found", r))
		return
	}

	annotation, event, err := h.recorder.RecordSummary(r.Context(), userID, summary.ID, summary.SubjectID, difficulty.SummarySelection{
		Text:        req.Text,
		Start:       req.Start,
		End:         req.End,
		ParagraphID: req.ParagraphID,
		Note:        req.Note,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"annotation": annotation,
		"difficulty": event,
	})
}

// List returns the subject's difficulty events, filterable by origin,
// topic and resolved state. Default is unresolved only.
func (h *DifficultyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjectID, err := uuid.Parse(r.URL.Query().Get("subject_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject_id query param is required", r))
		return
	}

	filter := difficulty.Unresolved()
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		resolved, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "resolved must be true or false", r))
			return
		}
		filter.Resolved = &resolved
	}
	filter.OriginType = r.URL.Query().Get("origin")
	filter.Topic = r.URL.Query().Get("topic")

	events, err := h.difficultyRepo.ListEvents(r.Context(), userID, subjectID, filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch difficulties", r))
		return
	}
	if events == nil {
		events = []models.DifficultyEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"difficulties": events,
		"total":        len(events),
	})
}

// Analysis returns the per-topic rollup for a subject.
func (h *DifficultyHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjectID, err := uuid.Parse(r.URL.Query().Get("subject_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject_id query param is required", r))
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), userID, subjectID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to analyze difficulties", r))
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// Gaps returns classified knowledge gaps with suggested actions.
func (h *DifficultyHandler) Gaps(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjectID, err := uuid.Parse(r.URL.Query().Get("subject_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject_id query param is required", r))
		return
	}

	report, err := h.advisor.IdentifyGaps(r.Context(), userID, subjectID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to identify gaps", r))
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// CheckPersonalizedSummary reports whether the subject has accumulated
// enough difficulty to warrant a personalized summary.
func (h *DifficultyHandler) CheckPersonalizedSummary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjectID, err := uuid.Parse(r.URL.Query().Get("subject_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject_id query param is required", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"should_offer": h.advisor.ShouldOfferPersonalizedSummary(r.Context(), userID, subjectID),
	})
}

// Dashboard returns one analysis snapshot per subject, for the
// study-overview screen. Subjects without unresolved difficulties are
// included with a zero-valued analysis.
func (h *DifficultyHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjects, err := h.subjectRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch subjects", r))
		return
	}

	type subjectOverview struct {
		Subject  *models.Subject      `json:"subject"`
		Analysis *difficulty.Analysis `json:"analysis"`
	}

	overviews := make([]subjectOverview, 0, len(subjects))
	for _, subject := range subjects {
		analysis, err := h.analyzer.Analyze(r.Context(), userID, subject.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to analyze difficulties", r))
			return
		}
		overviews = append(overviews, subjectOverview{Subject: subject, Analysis: analysis})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"subjects": overviews})
}

// Resolve marks one difficulty event as dealt with.
func (h *DifficultyHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid difficulty ID", r))
		return
	}

	event, err := h.difficultyRepo.GetEventByID(r.Context(), eventID)
	if err != nil || event.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Difficulty not found", r))
		return
	}

	if err := h.difficultyRepo.MarkResolved(r.Context(), eventID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to resolve difficulty", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Difficulty resolved"})
}

// GeneratePersonalizedSummary creates the target summary row and queues
// the generation job. Rejected when the subject has no unresolved
// difficulties to remediate.
func (h *DifficultyHandler) GeneratePersonalizedSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectID uuid.UUID `json:"subject_id"`
		Title     string    `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	subject, err := h.subjectRepo.GetByID(r.Context(), req.SubjectID)
	if err != nil || subject.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Subject not found", r))
		return
	}

	events, err := h.difficultyRepo.ListEvents(r.Context(), userID, req.SubjectID, difficulty.Unresolved())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check difficulties", r))
		return
	}
	if len(events) == 0 {
		handleServiceError(w, r, &difficulty.NoDifficultiesError{})
		return
	}

	title := req.Title
	if title == "" {
		title = "Personalized review: " + subject.Name
	}

	summary := &models.Summary{
		UserID:    userID,
		SubjectID: req.SubjectID,
		Title:     title,
		Content:   "",
		Source:    models.SummarySourcePersonalized,
	}
	if err := h.summaryRepo.Create(r.Context(), summary); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create summary", r))
		return
	}

	configBytes, _ := json.Marshal(map[string]interface{}{"subject_id": req.SubjectID})
	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypePersonalizedSummary,
		ReferenceID: summary.ID,
		ConfigJSON:  configBytes,
	}

	if err := enqueueJob(r.Context(), h.jobRepo, h.redis, job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue summary job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":     job.ID,
		"summary_id": summary.ID,
	})
}
