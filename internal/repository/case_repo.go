package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"casedeck-backend/internal/models"
)

type CaseRepo struct {
	pool *pgxpool.Pool
}

func NewCaseRepo(pool *pgxpool.Pool) *CaseRepo {
	return &CaseRepo{pool: pool}
}

// Create inserts a new case, assigning its id. Stems and flashcards are
// stored as JSONB in the order given; that order is the authoritative one.
func (r *CaseRepo) Create(ctx context.Context, c *models.Case) error {
	c.ID = uuid.New()
	stems, cards, err := encodeLists(c)
	if err != nil {
		return err
	}

	query := `INSERT INTO cases (id, user_id, title, stems, flashcards)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.UserID, c.Title, stems, cards,
	).Scan(&c.CreatedAt)
}

func (r *CaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	c := &models.Case{}
	query := `SELECT id, user_id, title, stems, flashcards, created_at
		FROM cases WHERE id = $1`

	var stems, cards []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Title, &stems, &cards, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeLists(c, stems, cards); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByUser returns the user's cases ascending by creation time, the
// stable default ordering for the grid and for deck assembly.
func (r *CaseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Case, error) {
	query := `SELECT id, user_id, title, stems, flashcards, created_at
		FROM cases WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []models.Case
	for rows.Next() {
		c := models.Case{}
		var stems, cards []byte
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &stems, &cards, &c.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeLists(&c, stems, cards); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// Update fully replaces title, stems and flashcards. Reports whether a row
// matched, so callers can distinguish a stale id from success.
func (r *CaseRepo) Update(ctx context.Context, c *models.Case) (bool, error) {
	stems, cards, err := encodeLists(c)
	if err != nil {
		return false, err
	}

	query := `UPDATE cases SET title = $1, stems = $2, flashcards = $3
		WHERE id = $4 AND user_id = $5`

	tag, err := r.pool.Exec(ctx, query, c.Title, stems, cards, c.ID, c.UserID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a case. Deleting an id that is already gone is success.
func (r *CaseRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM cases WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

func encodeLists(c *models.Case) ([]byte, []byte, error) {
	stems, err := json.Marshal(c.Stems)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode stems: %w", err)
	}
	cards, err := json.Marshal(c.Flashcards)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode flashcards: %w", err)
	}
	return stems, cards, nil
}

// decodeLists goes through the models' tolerant unmarshalers, so rows whose
// JSONB was written as a quoted JSON string still come back as arrays.
func decodeLists(c *models.Case, stems, cards []byte) error {
	if len(stems) > 0 {
		if err := json.Unmarshal(stems, &c.Stems); err != nil {
			return fmt.Errorf("failed to decode stems for case %s: %w", c.ID, err)
		}
	}
	if len(cards) > 0 {
		if err := json.Unmarshal(cards, &c.Flashcards); err != nil {
			return fmt.Errorf("failed to decode flashcards for case %s: %w", c.ID, err)
		}
	}
	return nil
}
