package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"revisa-backend/internal/models"
)

type AnnotationRepo struct {
	pool *pgxpool.Pool
}

func NewAnnotationRepo(pool *pgxpool.Pool) *AnnotationRepo {
	return &AnnotationRepo{pool: pool}
}

func (r *AnnotationRepo) CreateAnnotation(ctx context.Context, a *models.SummaryAnnotation) error {
	a.ID = uuid.New()

	query := `INSERT INTO summary_annotations
		(id, user_id, summary_id, selected_text, position_start, position_end, paragraph_id, kind, student_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		a.ID, a.UserID, a.SummaryID, a.SelectedText, a.PositionStart, a.PositionEnd,
		a.ParagraphID, a.Kind, a.StudentNote,
	).Scan(&a.CreatedAt)
}

func (r *AnnotationRepo) DeleteAnnotation(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM summary_annotations WHERE id = $1", id)
	return err
}

func (r *AnnotationRepo) LinkDifficulty(ctx context.Context, annotationID, eventID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE summary_annotations SET difficulty_id = $1 WHERE id = $2",
		eventID, annotationID)
	return err
}

func (r *AnnotationRepo) ListBySummary(ctx context.Context, userID, summaryID uuid.UUID) ([]models.SummaryAnnotation, error) {
	query := `SELECT id, user_id, summary_id, selected_text, position_start, position_end,
		paragraph_id, kind, student_note, difficulty_id, created_at
		FROM summary_annotations WHERE user_id = $1 AND summary_id = $2 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID, summaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var annotations []models.SummaryAnnotation
	for rows.Next() {
		a := models.SummaryAnnotation{}
		err := rows.Scan(&a.ID, &a.UserID, &a.SummaryID, &a.SelectedText, &a.PositionStart,
			&a.PositionEnd, &a.ParagraphID, &a.Kind, &a.StudentNote, &a.DifficultyID, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}
