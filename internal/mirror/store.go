// Package mirror holds the local/ephemeral copy of the passport data set:
// records authored through the dashboard plus the last good remote fetch.
// Callers must stay correct if this is the only source available.
package mirror

import (
	"context"

	"provenant/internal/domain"
)

// Store is the local mirror. One interface rather than per-collection stores:
// the collections are only ever used together and snapshot as a unit.
type Store interface {
	Identities(ctx context.Context) ([]domain.Identity, error)
	Identity(ctx context.Context, did string) (domain.Identity, error)
	SaveIdentity(ctx context.Context, ident domain.Identity) error

	Events(ctx context.Context) ([]domain.DIDEvent, error)
	EventsByDID(ctx context.Context, did string) ([]domain.DIDEvent, error)
	AppendEvent(ctx context.Context, event domain.DIDEvent) error

	Attestations(ctx context.Context, did string) ([]domain.Attestation, error)
	SaveAttestation(ctx context.Context, att domain.Attestation) error

	Anchors(ctx context.Context, did string) ([]domain.AnchoringEvent, error)
	SaveAnchor(ctx context.Context, anchor domain.AnchoringEvent) error

	Credentials(ctx context.Context, did string) ([]domain.Credential, error)
	SaveCredential(ctx context.Context, cred domain.Credential) error

	Relationships(ctx context.Context, parentDID string) ([]domain.Relationship, error)
	ParentOf(ctx context.Context, childDID string) (domain.Relationship, error)
	SaveRelationship(ctx context.Context, rel domain.Relationship) error

	Snapshot(ctx context.Context) (Snapshot, error)
	Restore(ctx context.Context, snap Snapshot) error
}

// Snapshot is the single serialized state of every mirror collection. On
// restore, each collection loads independently and a missing one defaults to
// empty, so older snapshots stay loadable after new collections appear.
type Snapshot struct {
	Identities    []domain.Identity      `json:"identities,omitempty"`
	Events        []domain.DIDEvent      `json:"events,omitempty"`
	Attestations  []domain.Attestation   `json:"attestations,omitempty"`
	Anchors       []domain.AnchoringEvent `json:"anchors,omitempty"`
	Credentials   []domain.Credential    `json:"credentials,omitempty"`
	Relationships []domain.Relationship  `json:"relationships,omitempty"`
}

// SnapshotStore persists one serialized Snapshot. Implementations: local
// file (default), redis, postgres.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}
