package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"google.golang.org/api/option"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/models"
	"revisa-backend/internal/repository"
)

type GeminiService struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	summaryRepo    *repository.SummaryRepo
	quizRepo       *repository.QuizRepo
	flashRepo      *repository.FlashcardRepo
	jobRepo        *repository.JobRepo
	difficultyRepo *repository.DifficultyRepo
	payloads       *difficulty.PayloadBuilder
	redis          *redis.Client
	rateChan       chan struct{} // Token bucket
}

func NewGeminiService(
	apiKey string,
	concurrentReqs int,
	summaryRepo *repository.SummaryRepo,
	quizRepo *repository.QuizRepo,
	flashRepo *repository.FlashcardRepo,
	jobRepo *repository.JobRepo,
	difficultyRepo *repository.DifficultyRepo,
	payloads *difficulty.PayloadBuilder,
	redisClient *redis.Client,
) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:         client,
		model:          model,
		summaryRepo:    summaryRepo,
		quizRepo:       quizRepo,
		flashRepo:      flashRepo,
		jobRepo:        jobRepo,
		difficultyRepo: difficultyRepo,
		payloads:       payloads,
		redis:          redisClient,
		rateChan:       rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *GeminiService) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}

// GenerateQuiz handles quiz generation
func (s *GeminiService) GenerateQuiz(ctx context.Context, job *models.Job, summaryContent string) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	var config models.GenerateQuizRequest
	json.Unmarshal(job.ConfigJSON, &config)

	prompt := buildQuizPrompt(config, summaryContent)

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID: job.ID, Step: 2, StepName: "Generating Questions",
			EstimatedSecondsRemaining: 20,
		},
	})

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := stripFences(extractText(resp))

	var questions []models.QuizQuestion
	if err := json.Unmarshal([]byte(rawText), &questions); err != nil {
		// Try to extract JSON array
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &questions)
		}
	}

	validQuestions := validateQuizQuestions(questions)
	questionsJSON, _ := json.Marshal(validQuestions)

	return s.quizRepo.UpdateQuestions(ctx, job.ReferenceID, questionsJSON, len(validQuestions))
}

// GenerateFlashcards handles flashcard generation
func (s *GeminiService) GenerateFlashcards(ctx context.Context, job *models.Job, summaryContent string) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	var config models.GenerateFlashcardsRequest
	json.Unmarshal(job.ConfigJSON, &config)

	prompt := buildFlashcardPrompt(config, summaryContent)

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID: job.ID, Step: 2, StepName: "Creating Flashcards",
			EstimatedSecondsRemaining: 15,
		},
	})

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := stripFences(extractText(resp))

	type cardJSON struct {
		Front      string  `json:"front"`
		Back       string  `json:"back"`
		Difficulty int     `json:"difficulty"`
		Topic      string  `json:"topic"`
		Subtopic   *string `json:"subtopic"`
	}

	var cards []cardJSON
	if err := json.Unmarshal([]byte(rawText), &cards); err != nil {
		start := strings.Index(rawText, "[")
		end := strings.LastIndex(rawText, "]")
		if start >= 0 && end > start {
			json.Unmarshal([]byte(rawText[start:end+1]), &cards)
		}
	}

	modelCards := make([]models.FlashcardCard, 0, len(cards))
	for _, c := range cards {
		if c.Front == "" || c.Back == "" {
			continue
		}
		if c.Difficulty < 1 || c.Difficulty > 3 {
			c.Difficulty = 2
		}
		modelCards = append(modelCards, models.FlashcardCard{
			Front:      c.Front,
			Back:       c.Back,
			Topic:      c.Topic,
			Subtopic:   c.Subtopic,
			Difficulty: c.Difficulty,
		})
	}

	return s.flashRepo.CreateCards(ctx, job.ReferenceID, modelCards)
}

// GeneratePersonalizedSummary writes a remediation summary targeting the
// learner's unresolved difficulties, then marks them resolved. The job's
// ReferenceID is the pre-created summary row; only its content is filled in
// here. Fails with *difficulty.NoDifficultiesError when every difficulty was
// resolved between enqueue and execution.
func (s *GeminiService) GeneratePersonalizedSummary(ctx context.Context, job *models.Job) error {
	if err := s.acquireRate(ctx); err != nil {
		return err
	}
	defer s.releaseRate()

	var config struct {
		SubjectID uuid.UUID `json:"subject_id"`
	}
	json.Unmarshal(job.ConfigJSON, &config)

	// Rebuild from live data rather than trusting a snapshot taken at
	// enqueue time.
	payload, err := s.payloads.Build(ctx, job.UserID, config.SubjectID)
	if err != nil {
		return err
	}

	s.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID: job.ID, Step: 2, StepName: "Writing Personalized Review",
			EstimatedSecondsRemaining: 30,
		},
	})

	prompt := buildPersonalizedSummaryPrompt(payload)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}

	content := strings.TrimSpace(extractText(resp))
	if content == "" {
		return fmt.Errorf("Gemini returned an empty personalized summary")
	}

	if err := s.summaryRepo.UpdateContent(ctx, job.ReferenceID, content); err != nil {
		return err
	}

	// The summary now covers these difficulties.
	return s.difficultyRepo.MarkAllResolved(ctx, job.UserID, config.SubjectID)
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

func buildQuizPrompt(config models.GenerateQuizRequest, content string) string {
	var b strings.Builder

	b.WriteString("You are an expert educational assessor. Generate quiz questions based on the following study material.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")

	b.WriteString(fmt.Sprintf("Generate exactly %d multiple choice questions.\n", config.NumQuestions))

	if len(config.Topics) > 0 {
		b.WriteString(fmt.Sprintf("Focus on these topics: %s.\n", strings.Join(config.Topics, ", ")))
	}

	b.WriteString(fmt.Sprintf("Difficulty: %s\n", config.Difficulty))

	switch config.Difficulty {
	case "easy":
		b.WriteString("Easy = direct recall from text.\n")
	case "medium":
		b.WriteString("Medium = application of concepts.\n")
	case "hard":
		b.WriteString("Hard = analysis, synthesis, or inference beyond what is explicitly stated.\n")
	}

	b.WriteString(`
JSON schema per question:
{"question": "string", "options": ["string"], "correct_index": int, "explanation": "string", "hint": "string", "difficulty": "easy"|"medium"|"hard", "topic": "string", "subtopic": "string", "concepts": ["string"]}

Exactly 4 options per question. "topic" is the main theme the question tests,
"subtopic" narrows it, and "concepts" lists the 1-3 key terms involved. These
fields must be filled for every question.
`)

	b.WriteString("\n---CONTENT---\n")
	b.WriteString(content)
	b.WriteString("\n---END---\n")

	return b.String()
}

func buildFlashcardPrompt(config models.GenerateFlashcardsRequest, content string) string {
	var b strings.Builder

	b.WriteString("You are an expert flashcard creator. Generate high-quality flashcards from the content below.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Generate exactly %d flashcards.\n\n", config.NumCards))

	if len(config.Topics) > 0 {
		b.WriteString(fmt.Sprintf("Focus on these topics: %s.\n\n", strings.Join(config.Topics, ", ")))
	}

	b.WriteString(`
Rules:
- Front must be under 15 words (question or term, never a statement)
- Back must be under 60 words and self-contained
- No two cards may test the same concept
- Vary card types

JSON schema per card:
{"front": "string", "back": "string", "difficulty": 1|2|3, "topic": "string", "subtopic": "string|null"}
`)

	b.WriteString("\n---CONTENT---\n")
	b.WriteString(content)
	b.WriteString("\n---END---\n")

	return b.String()
}

func buildPersonalizedSummaryPrompt(payload *difficulty.PersonalizedSummaryPayload) string {
	var b strings.Builder

	b.WriteString("You are an expert tutor. A student has recorded the points below as things they do NOT understand. ")
	b.WriteString("Write a focused review summary that re-explains exactly these points, simply and concretely, with examples.\n\n")
	b.WriteString(fmt.Sprintf("The student struggled %d times in total. Topics are listed from most to least urgent. ", payload.TotalDifficulties))
	b.WriteString("Spend the most space on the first topics.\n\n")

	for i, t := range payload.Topics {
		b.WriteString(fmt.Sprintf("%d. Topic: %s (difficulty level %d, struggled %d times)\n", i+1, t.Topic, t.MaxLevel, t.TotalFrequency))
		if len(t.Subtopics) > 0 {
			b.WriteString(fmt.Sprintf("   Subtopics: %s\n", strings.Join(t.Subtopics, "; ")))
		}
		for _, q := range t.RelatedQuestions {
			b.WriteString(fmt.Sprintf("   Question they could not answer: %s\n", q))
		}
		for _, txt := range t.OriginalTexts {
			b.WriteString(fmt.Sprintf("   Passage they did not understand: %s\n", txt))
		}
	}

	b.WriteString(`
Output rules:
- Plain text with one clear section per topic, in the order given
- For each quiz question listed, explain the correct reasoning step by step
- For each passage listed, rewrite the idea in simpler words
- End with a short "what to review next" list
- Write in the same language as the questions and passages above
`)

	return b.String()
}

func validateQuizQuestions(questions []models.QuizQuestion) []models.QuizQuestion {
	var valid []models.QuizQuestion
	for _, q := range questions {
		if q.Question == "" || len(q.Options) == 0 {
			continue
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			q.CorrectIndex = 0
		}
		q.ID = uuid.New()
		valid = append(valid, q)
	}
	return valid
}
