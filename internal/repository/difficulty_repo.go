package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/models"
)

type DifficultyRepo struct {
	pool *pgxpool.Pool
}

func NewDifficultyRepo(pool *pgxpool.Pool) *DifficultyRepo {
	return &DifficultyRepo{pool: pool}
}

// CreateEvent persists a difficulty event. A recurring difficulty for
// the same topic and origin bumps the existing unresolved row instead
// of inserting a duplicate; e is overwritten with the merged row.
func (r *DifficultyRepo) CreateEvent(ctx context.Context, e *models.DifficultyEvent) error {
	existing, err := r.IncrementFrequency(ctx, e.UserID, e.SubjectID, e.Topic, e.OriginType)
	if err == nil {
		*e = *existing
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	e.ID = uuid.New()
	if e.DifficultyLevel == 0 {
		e.DifficultyLevel = 1
	}
	if e.Frequency == 0 {
		e.Frequency = 1
	}

	query := `INSERT INTO difficulty_events
		(id, user_id, subject_id, origin_type, topic, subtopic, specific_concept,
		 original_text, related_question, source_item_id, difficulty_level, frequency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING resolved, created_at`

	return r.pool.QueryRow(ctx, query,
		e.ID, e.UserID, e.SubjectID, e.OriginType, e.Topic, e.Subtopic, e.SpecificConcept,
		e.OriginalText, e.RelatedQuestion, e.SourceItemID, e.DifficultyLevel, e.Frequency,
	).Scan(&e.Resolved, &e.CreatedAt)
}

func (r *DifficultyRepo) ListEvents(ctx context.Context, userID, subjectID uuid.UUID, filter difficulty.EventFilter) ([]models.DifficultyEvent, error) {
	query := `SELECT id, user_id, subject_id, origin_type, topic, subtopic, specific_concept,
		original_text, related_question, source_item_id, difficulty_level, frequency, resolved, created_at
		FROM difficulty_events WHERE user_id = $1 AND subject_id = $2`
	args := []interface{}{userID, subjectID}

	if filter.Resolved != nil {
		args = append(args, *filter.Resolved)
		query += " AND resolved = $" + strconv.Itoa(len(args))
	}
	if filter.OriginType != "" {
		args = append(args, filter.OriginType)
		query += " AND origin_type = $" + strconv.Itoa(len(args))
	}
	if filter.Topic != "" {
		args = append(args, filter.Topic)
		query += " AND topic = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY difficulty_level DESC, created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.DifficultyEvent
	for rows.Next() {
		e := models.DifficultyEvent{}
		err := rows.Scan(&e.ID, &e.UserID, &e.SubjectID, &e.OriginType, &e.Topic, &e.Subtopic,
			&e.SpecificConcept, &e.OriginalText, &e.RelatedQuestion, &e.SourceItemID,
			&e.DifficultyLevel, &e.Frequency, &e.Resolved, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *DifficultyRepo) GetEventByID(ctx context.Context, id uuid.UUID) (*models.DifficultyEvent, error) {
	e := &models.DifficultyEvent{}
	query := `SELECT id, user_id, subject_id, origin_type, topic, subtopic, specific_concept,
		original_text, related_question, source_item_id, difficulty_level, frequency, resolved, created_at
		FROM difficulty_events WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.SubjectID, &e.OriginType, &e.Topic, &e.Subtopic,
		&e.SpecificConcept, &e.OriginalText, &e.RelatedQuestion, &e.SourceItemID,
		&e.DifficultyLevel, &e.Frequency, &e.Resolved, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *DifficultyRepo) MarkResolved(ctx context.Context, eventID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE difficulty_events SET resolved = TRUE WHERE id = $1", eventID)
	return err
}

// MarkAllResolved flips every unresolved event of a subject, used after
// a personalized summary has been generated from them.
func (r *DifficultyRepo) MarkAllResolved(ctx context.Context, userID, subjectID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE difficulty_events SET resolved = TRUE WHERE user_id = $1 AND subject_id = $2 AND resolved = FALSE",
		userID, subjectID)
	return err
}

// IncrementFrequency bumps the recurrence counter of an existing
// unresolved event for the same topic and origin, raising the level one
// step (capped at 5). Returns the updated event, or nil when no match
// exists and the caller should create a fresh one.
func (r *DifficultyRepo) IncrementFrequency(ctx context.Context, userID, subjectID uuid.UUID, topic, originType string) (*models.DifficultyEvent, error) {
	e := &models.DifficultyEvent{}
	query := `UPDATE difficulty_events
		SET frequency = frequency + 1, difficulty_level = LEAST(difficulty_level + 1, 5)
		WHERE id = (
			SELECT id FROM difficulty_events
			WHERE user_id = $1 AND subject_id = $2 AND topic = $3 AND origin_type = $4 AND resolved = FALSE
			ORDER BY created_at DESC LIMIT 1
		)
		RETURNING id, user_id, subject_id, origin_type, topic, subtopic, specific_concept,
			original_text, related_question, source_item_id, difficulty_level, frequency, resolved, created_at`

	err := r.pool.QueryRow(ctx, query, userID, subjectID, topic, originType).Scan(
		&e.ID, &e.UserID, &e.SubjectID, &e.OriginType, &e.Topic, &e.Subtopic,
		&e.SpecificConcept, &e.OriginalText, &e.RelatedQuestion, &e.SourceItemID,
		&e.DifficultyLevel, &e.Frequency, &e.Resolved, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}
