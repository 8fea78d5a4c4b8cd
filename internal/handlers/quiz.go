package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/middleware"
	"revisa-backend/internal/models"
	"revisa-backend/internal/repository"
)

type QuizHandler struct {
	quizRepo    quizRepository
	summaryRepo summaryRepository
	jobRepo     *repository.JobRepo
	recorder    *difficulty.Recorder
	redis       *redis.Client
}

type quizRepository interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	ListBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*models.Quiz, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CreateAttempt(ctx context.Context, a *models.QuizAttempt) error
	GetAttemptByID(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error)
	SubmitAttempt(ctx context.Context, attemptID uuid.UUID, score float64, correct int, answers json.RawMessage) error
}

func NewQuizHandler(quizRepo quizRepository, summaryRepo summaryRepository, jobRepo *repository.JobRepo, recorder *difficulty.Recorder, redisClient *redis.Client) *QuizHandler {
	return &QuizHandler{
		quizRepo:    quizRepo,
		summaryRepo: summaryRepo,
		jobRepo:     jobRepo,
		recorder:    recorder,
		redis:       redisClient,
	}
}

// Generate creates an empty quiz and queues the question-generation job.
func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if req.NumQuestions <= 0 || req.NumQuestions > 30 {
		req.NumQuestions = 10
	}

	summary, err := h.summaryRepo.GetByID(r.Context(), req.SummaryID)
	if err != nil || summary.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Summary not found", r))
		return
	}

	title := req.Title
	if title == "" {
		title = "Quiz: " + summary.Title
	}

	configBytes, _ := json.Marshal(req)
	quiz := &models.Quiz{
		UserID:     userID,
		SubjectID:  summary.SubjectID,
		SummaryID:  &summary.ID,
		Title:      title,
		ConfigJSON: configBytes,
	}

	if err := h.quizRepo.Create(r.Context(), quiz); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create quiz", r))
		return
	}

	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypeQuizGeneration,
		ReferenceID: quiz.ID,
		ConfigJSON:  configBytes,
	}

	if err := enqueueJob(r.Context(), h.jobRepo, h.redis, job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue quiz job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  job.ID,
		"quiz_id": quiz.ID,
	})
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	subjectID, err := uuid.Parse(r.URL.Query().Get("subject_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject_id query param is required", r))
		return
	}

	quizzes, err := h.quizRepo.ListBySubject(r.Context(), userID, subjectID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch quizzes", r))
		return
	}
	if quizzes == nil {
		quizzes = []*models.Quiz{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.ownedQuiz(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.ownedQuiz(w, r)
	if !ok {
		return
	}

	if err := h.quizRepo.Delete(r.Context(), quiz.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete quiz", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted"})
}

func (h *QuizHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	quiz, ok := h.ownedQuiz(w, r)
	if !ok {
		return
	}

	if quiz.QuestionCount == 0 {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Quiz questions are still being generated", r))
		return
	}

	attempt := &models.QuizAttempt{
		QuizID: quiz.ID,
		UserID: quiz.UserID,
	}
	if err := h.quizRepo.CreateAttempt(r.Context(), attempt); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start attempt", r))
		return
	}

	writeJSON(w, http.StatusCreated, attempt)
}

// SubmitAttempt scores the attempt. Every "I don't know" answer also
// becomes a difficulty event; a failed recording is logged but never
// blocks the submission.
func (h *QuizHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid attempt ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	attempt, err := h.quizRepo.GetAttemptByID(r.Context(), attemptID)
	if err != nil || attempt.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Attempt not found", r))
		return
	}
	if attempt.CompletedAt != nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Attempt was already submitted", r))
		return
	}

	quiz, err := h.quizRepo.GetByID(r.Context(), attempt.QuizID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return
	}

	var req models.SubmitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(quiz.QuestionsJSON, &questions); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Quiz questions are corrupted", r))
		return
	}

	correct := 0
	recorded := 0
	for _, answer := range req.Answers {
		if answer.QuestionIndex < 0 || answer.QuestionIndex >= len(questions) {
			continue
		}
		question := questions[answer.QuestionIndex]

		if answer.DontKnow {
			if _, recErr := h.recorder.RecordQuiz(r.Context(), userID, quiz.SubjectID, &question); recErr != nil {
				log.Printf("failed to record quiz difficulty for question %s: %v", question.ID, recErr)
			} else {
				recorded++
			}
			continue
		}

		if answer.AnswerIndex == question.CorrectIndex {
			correct++
		}
	}

	score := 0.0
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions)) * 100
	}

	answersJSON, _ := json.Marshal(req.Answers)
	if err := h.quizRepo.SubmitAttempt(r.Context(), attempt.ID, score, correct, answersJSON); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save attempt", r))
		return
	}

	now := time.Now()
	taken := int(now.Sub(attempt.StartedAt).Seconds())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempt_id":            attempt.ID,
		"score_percent":         score,
		"correct_count":         correct,
		"question_count":        len(questions),
		"difficulties_recorded": recorded,
		"time_taken_seconds":    taken,
	})
}

func (h *QuizHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid attempt ID", r))
		return
	}

	attempt, err := h.quizRepo.GetAttemptByID(r.Context(), attemptID)
	if err != nil || attempt.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Attempt not found", r))
		return
	}

	writeJSON(w, http.StatusOK, attempt)
}

func (h *QuizHandler) ownedQuiz(w http.ResponseWriter, r *http.Request) (*models.Quiz, bool) {
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return nil, false
	}

	quiz, err := h.quizRepo.GetByID(r.Context(), quizID)
	if err != nil || quiz.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return nil, false
	}

	return quiz, true
}
