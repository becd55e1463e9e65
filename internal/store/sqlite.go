package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS debates (
	id         TEXT PRIMARY KEY,
	topic      TEXT NOT NULL,
	stance     TEXT NOT NULL,
	state      TEXT NOT NULL,
	concluded  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_debates_concluded ON debates(concluded);
`

// SQLite is the durable Store. SQLite serializes writers itself; one turn's
// read-modify-write happens inside one transaction.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening sqlite: %w", err)
	}
	// A single connection keeps transactions strictly serialized.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrating: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Create implements Store.
func (s *SQLite) Create(ctx context.Context, state *debate.State) (string, error) {
	id := uuid.NewString()
	blob, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("store: encoding state: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO debates (id, topic, stance, state, concluded, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, state.Topic, string(state.Stance), string(blob), boolToInt(state.Concluded), now, now)
	if err != nil {
		return "", fmt.Errorf("store: inserting debate: %w", err)
	}
	return id, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, id string) (*debate.State, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM debates WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading debate: %w", err)
	}
	return decodeState(blob)
}

// Update implements Store inside one transaction.
func (s *SQLite) Update(ctx context.Context, id string, fn func(*debate.State) error) (*debate.State, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: beginning tx: %w", err)
	}
	defer tx.Rollback()

	var blob string
	err = tx.QueryRowContext(ctx, `SELECT state FROM debates WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading debate: %w", err)
	}

	state, err := decodeState(blob)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("store: encoding state: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE debates SET state = ?, concluded = ?, updated_at = ? WHERE id = ?`,
		string(updated), boolToInt(state.Concluded), time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("store: updating debate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: committing: %w", err)
	}
	return state, nil
}

func decodeState(blob string) (*debate.State, error) {
	var state debate.State
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("store: decoding state: %w", err)
	}
	return &state, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
