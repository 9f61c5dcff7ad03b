package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/vocabpack/pkg/models"
	"github.com/jmoiron/sqlx"
)

// StateRepository stores the application state as a single record
type StateRepository struct {
	db *sqlx.DB
}

// NewStateRepository creates a new repository instance
func NewStateRepository(db *sqlx.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Load returns the stored state. A missing or undecodable record yields a
// fresh default state; only database failures are returned as errors.
func (r *StateRepository) Load(ctx context.Context) (*models.State, error) {
	var row StateRow
	err := r.db.GetContext(ctx, &row,
		r.db.Rebind("SELECT id, schema_version, payload, updated_at FROM app_state WHERE id = ?"), stateRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	res := DecodeState([]byte(row.Payload))
	if !res.OK() {
		log.Printf("Discarding stored state saved at %s: %v", row.UpdatedAt.Format(time.RFC3339), res.Err)
	}
	return res.StateOrDefault(), nil
}

// Save replaces the stored record with state
func (r *StateRepository) Save(ctx context.Context, state *models.State) error {
	payload, err := EncodeState(state)
	if err != nil {
		return err
	}

	query := r.db.Rebind(`
		INSERT INTO app_state (id, schema_version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			schema_version = excluded.schema_version,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`)
	_, err = r.db.ExecContext(ctx, query, stateRowID, state.Schema, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Reset removes the stored record
func (r *StateRepository) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM app_state WHERE id = ?"), stateRowID)
	if err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	return nil
}
