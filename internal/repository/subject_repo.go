package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"revisa-backend/internal/models"
)

type SubjectRepo struct {
	pool *pgxpool.Pool
}

func NewSubjectRepo(pool *pgxpool.Pool) *SubjectRepo {
	return &SubjectRepo{pool: pool}
}

func (r *SubjectRepo) Create(ctx context.Context, s *models.Subject) error {
	s.ID = uuid.New()

	query := `INSERT INTO subjects (id, user_id, name, description, color)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, s.ID, s.UserID, s.Name, s.Description, s.Color).Scan(&s.CreatedAt)
}

func (r *SubjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subject, error) {
	s := &models.Subject{}
	query := `SELECT id, user_id, name, description, color, created_at FROM subjects WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.Color, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SubjectRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subject, error) {
	query := `SELECT id, user_id, name, description, color, created_at
		FROM subjects WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []*models.Subject
	for rows.Next() {
		s := &models.Subject{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.Color, &s.CreatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM subjects WHERE id = $1", id)
	return err
}
