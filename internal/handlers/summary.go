package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"revisa-backend/internal/middleware"
	"revisa-backend/internal/models"
	"revisa-backend/internal/repository"
)

type SummaryHandler struct {
	summaryRepo    summaryRepository
	subjectRepo    subjectRepository
	annotationRepo *repository.AnnotationRepo
}

type summaryRepository interface {
	Create(ctx context.Context, s *models.Summary) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Summary, error)
	ListBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*models.Summary, error)
	TouchAccessed(ctx context.Context, id uuid.UUID) error
	ToggleFavorite(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func NewSummaryHandler(summaryRepo summaryRepository, subjectRepo subjectRepository, annotationRepo *repository.AnnotationRepo) *SummaryHandler {
	return &SummaryHandler{
		summaryRepo:    summaryRepo,
		subjectRepo:    subjectRepo,
		annotationRepo: annotationRepo,
	}
}

// Create stores learner-provided study material. Personalized summaries
// are never created here; they come out of the generation job.
func (h *SummaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		fields["content"] = "content is required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	subject, err := h.subjectRepo.GetByID(r.Context(), req.SubjectID)
	if err != nil || subject.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Subject not found", r))
		return
	}

	summary := &models.Summary{
		UserID:    userID,
		SubjectID: req.SubjectID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Source:    models.SummarySourceGeneral,
	}

	if err := h.summaryRepo.Create(r.Context(), summary); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create summary", r))
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

func (h *SummaryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjectID, err := uuid.Parse(r.URL.Query().Get("subject_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject_id query param is required", r))
		return
	}

	summaries, err := h.summaryRepo.ListBySubject(r.Context(), userID, subjectID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch summaries", r))
		return
	}
	if summaries == nil {
		summaries = []*models.Summary{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"summaries": summaries})
}

func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.ownedSummary(w, r)
	if !ok {
		return
	}

	h.summaryRepo.TouchAccessed(r.Context(), summary.ID)

	writeJSON(w, http.StatusOK, summary)
}

func (h *SummaryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.ownedSummary(w, r)
	if !ok {
		return
	}

	if err := h.summaryRepo.ToggleFavorite(r.Context(), summary.ID, summary.UserID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update summary", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"is_favorite": !summary.IsFavorite})
}

func (h *SummaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.ownedSummary(w, r)
	if !ok {
		return
	}

	if err := h.summaryRepo.Delete(r.Context(), summary.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete summary", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Summary deleted"})
}

// ListAnnotations returns the learner's highlights on one summary.
func (h *SummaryHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.ownedSummary(w, r)
	if !ok {
		return
	}

	annotations, err := h.annotationRepo.ListBySummary(r.Context(), summary.UserID, summary.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch annotations", r))
		return
	}
	if annotations == nil {
		annotations = []models.SummaryAnnotation{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"annotations": annotations})
}

func (h *SummaryHandler) ownedSummary(w http.ResponseWriter, r *http.Request) (*models.Summary, bool) {
	summaryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid summary ID", r))
		return nil, false
	}

	summary, err := h.summaryRepo.GetByID(r.Context(), summaryID)
	if err != nil || summary.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Summary not found", r))
		return nil, false
	}

	return summary, true
}
