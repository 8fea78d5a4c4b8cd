package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/models"
	"revisa-backend/internal/repository"
	"revisa-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *difficulty.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{e.Field: e.Reason}, r))
	case *difficulty.NoDifficultiesError:
		writeJSON(w, http.StatusNotFound, errorResp("NO_DIFFICULTIES", "No unresolved difficulties found for this subject", r))
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.ForbiddenError:
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// enqueueJob persists the job and pushes it to its Redis queue. On push
// failure the job row is marked failed so it cannot linger as pending.
func enqueueJob(ctx context.Context, jobRepo *repository.JobRepo, redisClient *redis.Client, job *models.Job) error {
	if err := jobRepo.Create(ctx, job); err != nil {
		return err
	}

	jobBytes, _ := json.Marshal(job)
	if err := redisClient.LPush(ctx, "queue:"+job.Type, string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue %s job %s: %v", job.Type, job.ID, err)
		jobRepo.UpdateStatus(ctx, job.ID, "failed")
		return err
	}
	return nil
}
