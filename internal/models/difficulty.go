package models

import (
	"time"

	"github.com/google/uuid"
)

// Origin of a difficulty signal.
const (
	OriginQuiz      = "quiz"
	OriginFlashcard = "flashcard"
	OriginSummary   = "summary"
)

// DifficultyEvent is one "I don't know" / "didn't understand" signal
// raised by a learner while studying a subject.
type DifficultyEvent struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	SubjectID       uuid.UUID  `json:"subject_id"`
	OriginType      string     `json:"origin_type"` // "quiz" | "flashcard" | "summary"
	Topic           string     `json:"topic"`
	Subtopic        *string    `json:"subtopic"`
	SpecificConcept *string    `json:"specific_concept"`
	OriginalText    *string    `json:"original_text"`
	RelatedQuestion *string    `json:"related_question"`
	SourceItemID    *uuid.UUID `json:"source_item_id"`
	DifficultyLevel int        `json:"difficulty_level"` // 1-5
	Frequency       int        `json:"frequency"`        // >= 1
	Resolved        bool       `json:"resolved"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SummaryAnnotation is a highlight a learner marked on a summary.
// It belongs to the summary, not to the difficulty store, but the
// "didn't understand" flow creates one before recording the event.
type SummaryAnnotation struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	SummaryID     uuid.UUID  `json:"summary_id"`
	SelectedText  string     `json:"selected_text"`
	PositionStart *int       `json:"position_start"`
	PositionEnd   *int       `json:"position_end"`
	ParagraphID   *string    `json:"paragraph_id"`
	Kind          string     `json:"kind"` // "didnt_understand"
	StudentNote   *string    `json:"student_note"`
	DifficultyID  *uuid.UUID `json:"difficulty_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AnnotationKindDidntUnderstand tags highlights raised from the
// "didn't understand" action.
const AnnotationKindDidntUnderstand = "didnt_understand"
