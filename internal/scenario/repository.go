// Package scenario persists named waterfall evaluations so they can be
// listed, replayed, and re-exported later.
package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested scenario was not found.
var ErrNotFound = errors.New("scenario not found")

// Scenario is a stored evaluation: the input parameters and the result
// computed from them at save time.
type Scenario struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Params    json.RawMessage `json:"params"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Repository defines persistent storage for scenarios.
type Repository interface {
	Save(ctx context.Context, name string, params, result json.RawMessage) error
	Get(ctx context.Context, name string) (*Scenario, error)
	List(ctx context.Context, limit int) ([]Scenario, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL scenario repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, name string, params, result json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO waterfall_scenarios (name, params, result)
		 VALUES ($1, $2::jsonb, $3::jsonb)
		 ON CONFLICT (name)
		 DO UPDATE SET params = $2::jsonb, result = $3::jsonb, updated_at = NOW()`,
		name, params, result)
	if err != nil {
		return fmt.Errorf("saving scenario %s: %w", name, err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, name string) (*Scenario, error) {
	var s Scenario
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, params, result, created_at, updated_at
		 FROM waterfall_scenarios
		 WHERE name = $1`, name).
		Scan(&s.ID, &s.Name, &s.Params, &s.Result, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting scenario %s: %w", name, err)
	}
	return &s, nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]Scenario, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, params, result, created_at, updated_at
		 FROM waterfall_scenarios
		 ORDER BY updated_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []Scenario
	for rows.Next() {
		var s Scenario
		if err := rows.Scan(&s.ID, &s.Name, &s.Params, &s.Result, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning scenario: %w", err)
		}
		scenarios = append(scenarios, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scenarios: %w", err)
	}
	return scenarios, nil
}
