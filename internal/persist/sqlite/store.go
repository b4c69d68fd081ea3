// Package sqlite persists studio state in a local SQLite database.
//
// The database runs in WAL mode with a busy timeout, writes retry on
// SQLITE_BUSY, and an advisory file lock next to the database serializes
// writers across processes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"zenstudio/internal/logging"
	"zenstudio/internal/persist"
)

var _ persist.Store = (*Store)(nil)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	writeLockRetryDelay     = 25 * time.Millisecond
	writeLockTimeout        = 5 * time.Second
)

// ErrLocked indicates another process held the write lock past the timeout.
var ErrLocked = errors.New("state database is locked by another process")

// Store is a SQLite-backed persist.Store.
type Store struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex
	lock    *flock.Flock
	logger  *slog.Logger
}

// Info describes the stored record.
type Info struct {
	Path      string
	Bytes     int
	Saves     int64
	UpdatedAt time.Time
}

// Open initializes or connects to the state database at path and applies
// migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database dir: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "persist.sqlite"),
	}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load implements persist.Store.
func (s *Store) Load(ctx context.Context) (persist.State, bool, error) {
	var value string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, persist.StateKey).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return persist.State{}, false, nil
	}
	if err != nil {
		return persist.State{}, false, fmt.Errorf("load state: %w", err)
	}
	state, err := persist.Decode([]byte(value))
	if err != nil {
		return persist.State{}, false, err
	}
	return state, true, nil
}

// Save implements persist.Store.
func (s *Store) Save(ctx context.Context, state persist.State) error {
	data, err := persist.Encode(state)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, writeLockTimeout)
	defer cancel()
	locked, err := s.lock.TryLockContext(lockCtx, writeLockRetryDelay)
	if err != nil || !locked {
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			err = ErrLocked
		}
		return fmt.Errorf("acquire write lock: %w", err)
	}
	defer func() {
		if unlockErr := s.lock.Unlock(); unlockErr != nil {
			s.logger.Warn("failed to release write lock", logging.Error(unlockErr))
		}
	}()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	err = retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at, saves) VALUES (?, ?, ?, 1)
             ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at, saves = kv.saves + 1`,
			persist.StateKey, string(data), timestamp,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	s.logger.Debug("state saved", logging.Int("bytes", len(data)))
	return nil
}

// Info reports the size and save count of the stored record. ok is false
// when nothing was saved yet.
func (s *Store) Info(ctx context.Context) (Info, bool, error) {
	info := Info{Path: s.path}
	var (
		size    int
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT length(value), saves, updated_at FROM kv WHERE key = ?`, persist.StateKey,
	).Scan(&size, &info.Saves, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return info, false, nil
	}
	if err != nil {
		return info, false, fmt.Errorf("state info: %w", err)
	}
	info.Bytes = size
	if ts, parseErr := time.Parse(time.RFC3339Nano, updated); parseErr == nil {
		info.UpdatedAt = ts
	}
	return info, true, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
