package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"revisa-backend/internal/models"
)

type SummaryRepo struct {
	pool *pgxpool.Pool
}

func NewSummaryRepo(pool *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{pool: pool}
}

func (r *SummaryRepo) Create(ctx context.Context, s *models.Summary) error {
	s.ID = uuid.New()
	if s.Source == "" {
		s.Source = models.SummarySourceGeneral
	}
	s.WordCount = len(strings.Fields(s.Content))

	query := `INSERT INTO summaries (id, user_id, subject_id, title, content, source, word_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.SubjectID, s.Title, s.Content, s.Source, s.WordCount,
	).Scan(&s.CreatedAt)
}

func (r *SummaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Summary, error) {
	s := &models.Summary{}
	query := `SELECT id, user_id, subject_id, title, content, source, word_count, is_favorite, created_at, last_accessed_at
		FROM summaries WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.SubjectID, &s.Title, &s.Content, &s.Source,
		&s.WordCount, &s.IsFavorite, &s.CreatedAt, &s.AccessedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SummaryRepo) ListBySubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*models.Summary, error) {
	query := `SELECT id, user_id, subject_id, title, content, source, word_count, is_favorite, created_at, last_accessed_at
		FROM summaries WHERE user_id = $1 AND subject_id = $2 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.Summary
	for rows.Next() {
		s := &models.Summary{}
		err := rows.Scan(&s.ID, &s.UserID, &s.SubjectID, &s.Title, &s.Content, &s.Source,
			&s.WordCount, &s.IsFavorite, &s.CreatedAt, &s.AccessedAt)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UpdateContent fills in a summary whose content is produced asynchronously.
func (r *SummaryRepo) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	wordCount := len(strings.Fields(content))
	_, err := r.pool.Exec(ctx,
		"UPDATE summaries SET content = $1, word_count = $2 WHERE id = $3", content, wordCount, id)
	return err
}

func (r *SummaryRepo) TouchAccessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE summaries SET last_accessed_at = $1 WHERE id = $2", time.Now(), id)
	return err
}

func (r *SummaryRepo) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE summaries SET is_favorite = NOT is_favorite WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

func (r *SummaryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM summaries WHERE id = $1", id)
	return err
}
