//go:build integration

package mirror

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenant/internal/domain"
)

func postgresDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PROVENANT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PROVENANT_TEST_POSTGRES_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS mirror_snapshots (
			name       TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	require.NoError(t, err)
	return db
}

func TestPostgresSnapshotStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db := postgresDB(t)
	defer db.Close()
	ctx := context.Background()

	store := NewPostgresSnapshotStore(db, "test-roundtrip")
	_, err := db.ExecContext(ctx, `DELETE FROM mirror_snapshots WHERE name = $1`, "test-roundtrip")
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Identities, "missing row loads empty")

	require.NoError(t, store.Save(ctx, Snapshot{Identities: []domain.Identity{{DID: "did:example:w1"}}}))
	require.NoError(t, store.Save(ctx, Snapshot{Identities: []domain.Identity{{DID: "did:example:w2"}}}),
		"second save upserts")

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Identities, 1)
	assert.Equal(t, "did:example:w2", loaded.Identities[0].DID)
}
