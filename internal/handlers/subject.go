package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"revisa-backend/internal/middleware"
	"revisa-backend/internal/models"
	"revisa-backend/internal/repository"
)

type SubjectHandler struct {
	subjectRepo *repository.SubjectRepo
}

func NewSubjectHandler(subjectRepo *repository.SubjectRepo) *SubjectHandler {
	return &SubjectHandler{subjectRepo: subjectRepo}
}

func (h *SubjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"name": "name is required"}, r))
		return
	}

	subject := &models.Subject{
		UserID:      middleware.GetUserID(r.Context()),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}

	if err := h.subjectRepo.Create(r.Context(), subject); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create subject", r))
		return
	}

	writeJSON(w, http.StatusCreated, subject)
}

func (h *SubjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjects, err := h.subjectRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch subjects", r))
		return
	}
	if subjects == nil {
		subjects = []*models.Subject{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"subjects": subjects})
}

func (h *SubjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid subject ID", r))
		return
	}

	subject, err := h.subjectRepo.GetByID(r.Context(), subjectID)
	if err != nil || subject.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Subject not found", r))
		return
	}

	writeJSON(w, http.StatusOK, subject)
}

func (h *SubjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subjectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid subject ID", r))
		return
	}

	subject, err := h.subjectRepo.GetByID(r.Context(), subjectID)
	if err != nil || subject.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Subject not found", r))
		return
	}

	if err := h.subjectRepo.Delete(r.Context(), subjectID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete subject", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Subject deleted"})
}
