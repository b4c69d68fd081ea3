// Package postgres persists studio state in a PostgreSQL table, for setups
// where several machines share one studio.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zenstudio/internal/logging"
	"zenstudio/internal/persist"
)

var _ persist.Store = (*Client)(nil)

// Client is a pgx-backed persist.Store.
type Client struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to dsn, verifies the connection and ensures the schema.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{pool: pool, logger: logging.NewComponentLogger(logger, "persist.postgres")}
	if err := c.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

// EnsureSchema creates the state table when missing.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS zenstudio_state (
    key        TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    saves      BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring postgres schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (c *Client) Close(context.Context) error {
	c.pool.Close()
	return nil
}

// Load implements persist.Store.
func (c *Client) Load(ctx context.Context) (persist.State, bool, error) {
	var data []byte
	err := c.pool.QueryRow(ctx, `SELECT value FROM zenstudio_state WHERE key = $1`, persist.StateKey).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return persist.State{}, false, nil
	}
	if err != nil {
		return persist.State{}, false, fmt.Errorf("loading state: %w", err)
	}
	state, err := persist.Decode(data)
	if err != nil {
		return persist.State{}, false, err
	}
	return state, true, nil
}

// Save implements persist.Store.
func (c *Client) Save(ctx context.Context, state persist.State) error {
	data, err := persist.Encode(state)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO zenstudio_state (key, value, saves, updated_at)
VALUES ($1, $2::jsonb, 1, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, saves = zenstudio_state.saves + 1, updated_at = now()`,
		persist.StateKey, string(data))
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	c.logger.Debug("state saved", logging.Int("bytes", len(data)))
	return nil
}

// Saves returns the save counter for the state record.
func (c *Client) Saves(ctx context.Context) (int64, error) {
	var saves int64
	err := c.pool.QueryRow(ctx, `SELECT saves FROM zenstudio_state WHERE key = $1`, persist.StateKey).Scan(&saves)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading save counter: %w", err)
	}
	return saves, nil
}

// Reset deletes the stored record.
func (c *Client) Reset(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM zenstudio_state WHERE key = $1`, persist.StateKey); err != nil {
		return fmt.Errorf("resetting state: %w", err)
	}
	return nil
}
