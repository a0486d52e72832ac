package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresSnapshotStore persists the snapshot as a single JSONB row, keyed so
// several dashboard instances can share one database.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS mirror_snapshots (
//	    name       TEXT PRIMARY KEY,
//	    data       JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	)
type PostgresSnapshotStore struct {
	db    *sql.DB
	name  string
	clock func() time.Time
}

// PostgresOption configures a PostgresSnapshotStore.
type PostgresOption func(*PostgresSnapshotStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock func() time.Time) PostgresOption {
	return func(s *PostgresSnapshotStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgresSnapshotStore builds a postgres-backed snapshot store.
func NewPostgresSnapshotStore(db *sql.DB, name string, opts ...PostgresOption) *PostgresSnapshotStore {
	s := &PostgresSnapshotStore{
		db:    db,
		name:  name,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	query := `
		INSERT INTO mirror_snapshots (name, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.name, data, s.clock()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot row. A missing row loads as an empty snapshot.
func (s *PostgresSnapshotStore) Load(ctx context.Context) (Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM mirror_snapshots WHERE name = $1`, s.name).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}
