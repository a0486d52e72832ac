package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenant/internal/domain"
)

func TestFileSnapshotStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := NewFileSnapshotStore(path)
	ctx := context.Background()

	snap := Snapshot{
		Identities: []domain.Identity{{DID: "did:example:w1", Category: domain.CategoryMain}},
		Events:     []domain.DIDEvent{{IdentityDID: "did:example:w1", Type: domain.EventCreate, VersionID: 1}},
	}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Identities, 1)
	assert.Equal(t, "did:example:w1", loaded.Identities[0].DID)
	require.Len(t, loaded.Events, 1)
	assert.Empty(t, loaded.Attestations, "missing collections default to empty")
}

func TestFileSnapshotStore_MissingFileLoadsEmpty(t *testing.T) {
	store := NewFileSnapshotStore(filepath.Join(t.TempDir(), "never-written.json"))
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Identities)
}

func TestFileSnapshotStore_PartialSnapshotLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	// Hand-written snapshot from an older build with only one collection.
	require.NoError(t, os.WriteFile(path, []byte(`{"identities":[{"did":"did:example:w1"}]}`), 0o644))

	snap, err := NewFileSnapshotStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Identities, 1)
	assert.Empty(t, snap.Events)
	assert.Empty(t, snap.Relationships)
}

func TestFileSnapshotStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileSnapshotStore(path).Load(context.Background())
	require.Error(t, err)
}
