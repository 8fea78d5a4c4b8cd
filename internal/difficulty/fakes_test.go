package difficulty

import (
	"context"
	"time"

	"github.com/google/uuid"

	"revisa-backend/internal/models"
)

// In-memory stores standing in for the pgx repositories.

type fakeEventStore struct {
	events    []models.DifficultyEvent
	createErr error
	listErr   error
}

func (s *fakeEventStore) CreateEvent(ctx context.Context, e *models.DifficultyEvent) error {
	if s.createErr != nil {
		return s.createErr
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	if e.DifficultyLevel == 0 {
		e.DifficultyLevel = 1
	}
	if e.Frequency == 0 {
		e.Frequency = 1
	}
	s.events = append(s.events, *e)
	return nil
}

func (s *fakeEventStore) ListEvents(ctx context.Context, userID, subjectID uuid.UUID, filter EventFilter) ([]models.DifficultyEvent, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.DifficultyEvent
	for _, e := range s.events {
		if e.UserID != userID || e.SubjectID != subjectID {
			continue
		}
		if filter.Resolved != nil && e.Resolved != *filter.Resolved {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeEventStore) MarkResolved(ctx context.Context, eventID uuid.UUID) error {
	for i := range s.events {
		if s.events[i].ID == eventID {
			s.events[i].Resolved = true
		}
	}
	return nil
}

type fakeAnnotationStore struct {
	annotations []models.SummaryAnnotation
	deleted     []uuid.UUID
	createErr   error
	linkErr     error
}

func (s *fakeAnnotationStore) CreateAnnotation(ctx context.Context, a *models.SummaryAnnotation) error {
	if s.createErr != nil {
		return s.createErr
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	s.annotations = append(s.annotations, *a)
	return nil
}

func (s *fakeAnnotationStore) DeleteAnnotation(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations = append(s.annotations[:i], s.annotations[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeAnnotationStore) LinkDifficulty(ctx context.Context, annotationID, eventID uuid.UUID) error {
	if s.linkErr != nil {
		return s.linkErr
	}
	for i := range s.annotations {
		if s.annotations[i].ID == annotationID {
			s.annotations[i].DifficultyID = &eventID
		}
	}
	return nil
}

// seedEvent inserts an unresolved event directly into the fake store.
func seedEvent(s *fakeEventStore, userID, subjectID uuid.UUID, topic, origin string, level, frequency int) models.DifficultyEvent {
	e := models.DifficultyEvent{
		ID:              uuid.New(),
		UserID:          userID,
		SubjectID:       subjectID,
		OriginType:      origin,
		Topic:           topic,
		DifficultyLevel: level,
		Frequency:       frequency,
		CreatedAt:       time.Now(),
	}
	s.events = append(s.events, e)
	return e
}
