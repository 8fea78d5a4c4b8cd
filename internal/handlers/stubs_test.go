package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/middleware"
	"revisa-backend/internal/models"
)

// authedRequest builds a request carrying an authenticated user and chi
// URL params, the way the router would hand it to a handler.
func authedRequest(method, target string, body interface{}, userID uuid.UUID, params map[string]string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.UserIDKey, userID)

	return req.WithContext(ctx)
}

type stubSummaryRepo struct {
	summary *models.Summary
	created *models.Summary
	toggled bool
	deleted bool
	touched bool
}

func (s *stubSummaryRepo) Create(ctx context.Context, summary *models.Summary) error {
	summary.ID = uuid.New()
	summary.CreatedAt = time.Now()
	s.created = summary
	return nil
}

func (s *stubSummaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Summary, error) {
	if s.summary == nil || s.summary.ID != id {
		return nil, context.Canceled
	}
	return s.summary, nil
}

func (s *stubSummaryRepo) ListBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*models.Summary, error) {
	if s.summary != nil && s.summary.UserID == userID && s.summary.SubjectID == subjectID {
		return []*models.Summary{s.summary}, nil
	}
	return nil, nil
}

func (s *stubSummaryRepo) TouchAccessed(ctx context.Context, id uuid.UUID) error {
	s.touched = true
	return nil
}

func (s *stubSummaryRepo) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) error {
	s.toggled = true
	return nil
}

func (s *stubSummaryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = true
	return nil
}

type stubSubjectRepo struct {
	subject *models.Subject
}

func (s *stubSubjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subject, error) {
	if s.subject == nil || s.subject.ID != id {
		return nil, context.Canceled
	}
	return s.subject, nil
}

func (s *stubSubjectRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subject, error) {
	if s.subject != nil && s.subject.UserID == userID {
		return []*models.Subject{s.subject}, nil
	}
	return nil, nil
}

// memEventRepo is an in-memory difficulty event store shared by the
// recorder and the read endpoints under test.
type memEventRepo struct {
	events []models.DifficultyEvent
}

func (m *memEventRepo) CreateEvent(ctx context.Context, e *models.DifficultyEvent) error {
	e.ID = uuid.New()
	if e.DifficultyLevel == 0 {
		e.DifficultyLevel = 1
	}
	if e.Frequency == 0 {
		e.Frequency = 1
	}
	e.CreatedAt = time.Now()
	m.events = append(m.events, *e)
	return nil
}

func (m *memEventRepo) ListEvents(ctx context.Context, userID, subjectID uuid.UUID, filter difficulty.EventFilter) ([]models.DifficultyEvent, error) {
	var out []models.DifficultyEvent
	for _, e := range m.events {
		if e.UserID != userID || e.SubjectID != subjectID {
			continue
		}
		if filter.Resolved != nil && e.Resolved != *filter.Resolved {
			continue
		}
		if filter.OriginType != "" && e.OriginType != filter.OriginType {
			continue
		}
		if filter.Topic != "" && e.Topic != filter.Topic {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memEventRepo) GetEventByID(ctx context.Context, id uuid.UUID) (*models.DifficultyEvent, error) {
	for i := range m.events {
		if m.events[i].ID == id {
			return &m.events[i], nil
		}
	}
	return nil, context.Canceled
}

func (m *memEventRepo) MarkResolved(ctx context.Context, eventID uuid.UUID) error {
	for i := range m.events {
		if m.events[i].ID == eventID {
			m.events[i].Resolved = true
		}
	}
	return nil
}

type memAnnotationRepo struct {
	annotations []models.SummaryAnnotation
	deleted     []uuid.UUID
}

func (m *memAnnotationRepo) CreateAnnotation(ctx context.Context, a *models.SummaryAnnotation) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.annotations = append(m.annotations, *a)
	return nil
}

func (m *memAnnotationRepo) DeleteAnnotation(ctx context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memAnnotationRepo) LinkDifficulty(ctx context.Context, annotationID, eventID uuid.UUID) error {
	for i := range m.annotations {
		if m.annotations[i].ID == annotationID {
			m.annotations[i].DifficultyID = &eventID
		}
	}
	return nil
}

type stubQuizRepo struct {
	quiz           *models.Quiz
	attempt        *models.QuizAttempt
	submittedScore float64
	submittedCount int
	submitted      bool
}

func (s *stubQuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	q.ID = uuid.New()
	return nil
}

func (s *stubQuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	if s.quiz == nil || s.quiz.ID != id {
		return nil, context.Canceled
	}
	return s.quiz, nil
}

func (s *stubQuizRepo) ListBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*models.Quiz, error) {
	return nil, nil
}

func (s *stubQuizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubQuizRepo) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	a.ID = uuid.New()
	a.StartedAt = time.Now()
	return nil
}

func (s *stubQuizRepo) GetAttemptByID(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	if s.attempt == nil || s.attempt.ID != id {
		return nil, context.Canceled
	}
	return s.attempt, nil
}

func (s *stubQuizRepo) SubmitAttempt(ctx context.Context, attemptID uuid.UUID, score float64, correct int, answers json.RawMessage) error {
	s.submitted = true
	s.submittedScore = score
	s.submittedCount = correct
	return nil
}

type stubFlashRepo struct {
	deck       *models.FlashcardDeck
	card       *models.FlashcardCard
	lastRating int
	rated      bool
}

func (s *stubFlashRepo) CreateDeck(ctx context.Context, d *models.FlashcardDeck) error {
	d.ID = uuid.New()
	return nil
}

func (s *stubFlashRepo) GetDeckByID(ctx context.Context, id uuid.UUID) (*models.FlashcardDeck, error) {
	if s.deck == nil || s.deck.ID != id {
		return nil, context.Canceled
	}
	return s.deck, nil
}

func (s *stubFlashRepo) ListDecksBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*models.FlashcardDeck, error) {
	return nil, nil
}

func (s *stubFlashRepo) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubFlashRepo) GetCardByID(ctx context.Context, id uuid.UUID) (*models.FlashcardCard, error) {
	if s.card == nil || s.card.ID != id {
		return nil, context.Canceled
	}
	return s.card, nil
}

func (s *stubFlashRepo) GetCardsByDeck(ctx context.Context, deckID uuid.UUID) ([]models.FlashcardCard, error) {
	return nil, nil
}

func (s *stubFlashRepo) RateCard(ctx context.Context, cardID uuid.UUID, rating int) error {
	s.rated = true
	s.lastRating = rating
	return nil
}
