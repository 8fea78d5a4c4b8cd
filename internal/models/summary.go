package models

import (
	"time"

	"github.com/google/uuid"
)

type Summary struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	SubjectID  uuid.UUID  `json:"subject_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Source     string     `json:"source"` // "general" | "personalized"
	WordCount  int        `json:"word_count"`
	IsFavorite bool       `json:"is_favorite"`
	CreatedAt  time.Time  `json:"created_at"`
	AccessedAt *time.Time `json:"last_accessed_at"`
}

const (
	SummarySourceGeneral      = "general"
	SummarySourcePersonalized = "personalized"
)

type CreateSummaryRequest struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
}
