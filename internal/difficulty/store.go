package difficulty

import (
	"context"

	"github.com/google/uuid"

	"revisa-backend/internal/models"
)

// EventFilter narrows ListEvents. Resolved=nil means "any".
type EventFilter struct {
	Resolved   *bool
	OriginType string
	Topic      string
}

// Unresolved is the filter every read path in this package uses.
func Unresolved() EventFilter {
	resolved := false
	return EventFilter{Resolved: &resolved}
}

// EventStore is the persistence contract for difficulty events. The
// store assigns ID and CreatedAt and fills DifficultyLevel/Frequency
// defaults on create.
type EventStore interface {
	CreateEvent(ctx context.Context, e *models.DifficultyEvent) error
	ListEvents(ctx context.Context, userID, subjectID uuid.UUID, filter EventFilter) ([]models.DifficultyEvent, error)
	MarkResolved(ctx context.Context, eventID uuid.UUID) error
}

// AnnotationStore persists summary highlights. It belongs to the
// summaries collaborator; the recorder only needs these three calls.
type AnnotationStore interface {
	CreateAnnotation(ctx context.Context, a *models.SummaryAnnotation) error
	DeleteAnnotation(ctx context.Context, id uuid.UUID) error
	LinkDifficulty(ctx context.Context, annotationID, eventID uuid.UUID) error
}
