package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/models"
	"revisa-backend/internal/repository"
	"revisa-backend/internal/services"
)

type Pool struct {
	redis       *redis.Client
	gemini      *services.GeminiService
	jobRepo     *repository.JobRepo
	summaryRepo *repository.SummaryRepo
	quizRepo    *repository.QuizRepo
	flashRepo   *repository.FlashcardRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	gemini *services.GeminiService,
	jobRepo *repository.JobRepo,
	summaryRepo *repository.SummaryRepo,
	quizRepo *repository.QuizRepo,
	flashRepo *repository.FlashcardRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		gemini:      gemini,
		jobRepo:     jobRepo,
		summaryRepo: summaryRepo,
		quizRepo:    quizRepo,
		flashRepo:   flashRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		"queue:quiz-generation",
		"queue:flashcard-generation",
		"queue:personalized-summary",
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		// Parse job
		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		// Update status
		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		// Publish status update
		p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
			Type: "status_update",
			Payload: models.StatusUpdate{
				JobID:    job.ID,
				Step:     1,
				StepName: "Preparing material",
			},
		})

		// Execute handler
		var processErr error
		switch job.Type {
		case models.JobTypeQuizGeneration:
			processErr = p.processQuiz(ctx, &job)
		case models.JobTypeFlashcardGeneration:
			processErr = p.processFlashcard(ctx, &job)
		case models.JobTypePersonalizedSummary:
			processErr = p.gemini.GeneratePersonalizedSummary(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processQuiz(ctx context.Context, job *models.Job) error {
	quiz, err := p.quizRepo.GetByID(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to get quiz: %w", err)
	}

	if quiz.SummaryID == nil || *quiz.SummaryID == uuid.Nil {
		return fmt.Errorf("quiz has no linked summary")
	}

	summary, err := p.summaryRepo.GetByID(ctx, *quiz.SummaryID)
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}

	if summary.Content == "" {
		return fmt.Errorf("summary %s has no content to quiz on", summary.ID)
	}

	return p.gemini.GenerateQuiz(ctx, job, summary.Content)
}

func (p *Pool) processFlashcard(ctx context.Context, job *models.Job) error {
	deck, err := p.flashRepo.GetDeckByID(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to get flashcard deck: %w", err)
	}

	if deck.SummaryID == nil || *deck.SummaryID == uuid.Nil {
		return fmt.Errorf("flashcard deck has no linked summary")
	}

	summary, err := p.summaryRepo.GetByID(ctx, *deck.SummaryID)
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}

	if summary.Content == "" {
		return fmt.Errorf("summary %s has no content for flashcards", summary.ID)
	}

	return p.gemini.GenerateFlashcards(ctx, job, summary.Content)
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   job.ReferenceID,
			ResultType: getResultType(job.Type),
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	// Every difficulty got resolved between enqueue and execution. Retrying
	// cannot change that, so fail the job immediately.
	var noDiff *difficulty.NoDifficultiesError
	permanent := errors.As(err, &noDiff)

	if !permanent && job.RetryCount < 3 {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), jobQueueName(job.Type), string(jobBytes))
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

	errorCode := "JOB_FAILED"
	if permanent {
		errorCode = "NO_DIFFICULTIES"
	}

	p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    errorCode,
			ErrorMessage: errMsg,
		},
	})
}

func jobQueueName(jobType string) string {
	return "queue:" + jobType
}

func getResultType(jobType string) string {
	switch jobType {
	case models.JobTypeQuizGeneration:
		return "quiz"
	case models.JobTypeFlashcardGeneration:
		return "flashcard"
	case models.JobTypePersonalizedSummary:
		return "summary"
	default:
		return "unknown"
	}
}
