package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type FlashcardDeck struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	SubjectID  uuid.UUID       `json:"subject_id"`
	SummaryID  *uuid.UUID      `json:"summary_id"`
	Title      string          `json:"title"`
	ConfigJSON json.RawMessage `json:"config"`
	CardCount  int             `json:"card_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

type FlashcardCard struct {
	ID             uuid.UUID  `json:"id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	Front          string     `json:"front"`
	Back           string     `json:"back"`
	Topic          string     `json:"topic"`
	Subtopic       *string    `json:"subtopic"`
	Difficulty     int        `json:"difficulty"` // 1=easy, 2=medium, 3=hard
	IntervalDays   int        `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
}

type GenerateFlashcardsRequest struct {
	SubjectID uuid.UUID `json:"subject_id"`
	SummaryID uuid.UUID `json:"summary_id"`
	Title     string    `json:"title"`
	NumCards  int       `json:"num_cards"`
	Topics    []string  `json:"topics"`
}

type CardRatingRequest struct {
	Rating int `json:"rating"` // 0=Again (don't know), 1=Hard, 2=Good, 3=Easy
}
