package mirror

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"provenant/internal/domain"
	"provenant/pkg/sentinel"
)

// InMemory keeps every mirror collection in process memory behind one lock.
// It favors clarity over performance; the data set is dashboard-sized.
type InMemory struct {
	mu            sync.RWMutex
	identities    map[string]domain.Identity
	events        []domain.DIDEvent
	attestations  []domain.Attestation
	anchors       []domain.AnchoringEvent
	credentials   []domain.Credential
	relationships []domain.Relationship
}

// NewInMemory builds an empty in-memory mirror.
func NewInMemory() *InMemory {
	return &InMemory{identities: make(map[string]domain.Identity)}
}

func (s *InMemory) Identities(_ context.Context) ([]domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Identity, 0, len(s.identities))
	for _, ident := range s.identities {
		out = append(out, ident)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DID < out[j].DID })
	return out, nil
}

func (s *InMemory) Identity(_ context.Context, did string) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ident, ok := s.identities[did]; ok {
		return ident, nil
	}
	return domain.Identity{}, sentinel.ErrNotFound
}

func (s *InMemory) SaveIdentity(_ context.Context, ident domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[ident.DID] = ident
	return nil
}

func (s *InMemory) Events(_ context.Context) ([]domain.DIDEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DIDEvent(nil), s.events...), nil
}

func (s *InMemory) EventsByDID(_ context.Context, did string) ([]domain.DIDEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.DIDEvent
	for _, ev := range s.events {
		if ev.IdentityDID == did {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VersionID < out[j].VersionID })
	return out, nil
}

func (s *InMemory) AppendEvent(_ context.Context, event domain.DIDEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Version ids are append-only per identity.
	for _, ev := range s.events {
		if ev.IdentityDID == event.IdentityDID && ev.VersionID >= event.VersionID {
			return fmt.Errorf("%w: version %d not after latest for %s",
				sentinel.ErrInvalidState, event.VersionID, event.IdentityDID)
		}
	}
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) Attestations(_ context.Context, did string) ([]domain.Attestation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attestation
	for _, att := range s.attestations {
		if did == "" || att.IdentityDID == did {
			out = append(out, att)
		}
	}
	return out, nil
}

func (s *InMemory) SaveAttestation(_ context.Context, att domain.Attestation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attestations = append(s.attestations, att)
	return nil
}

func (s *InMemory) Anchors(_ context.Context, did string) ([]domain.AnchoringEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AnchoringEvent
	for _, anchor := range s.anchors {
		if did == "" || anchor.IdentityDID == did {
			out = append(out, anchor)
		}
	}
	return out, nil
}

func (s *InMemory) SaveAnchor(_ context.Context, anchor domain.AnchoringEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchors = append(s.anchors, anchor)
	return nil
}

func (s *InMemory) Credentials(_ context.Context, did string) ([]domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Credential
	for _, cred := range s.credentials {
		if did == "" || cred.IdentityDID == did {
			out = append(out, cred)
		}
	}
	return out, nil
}

func (s *InMemory) SaveCredential(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = append(s.credentials, cred)
	return nil
}

func (s *InMemory) Relationships(_ context.Context, parentDID string) ([]domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Relationship
	for _, rel := range s.relationships {
		if parentDID == "" || rel.ParentDID == parentDID {
			out = append(out, rel)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *InMemory) ParentOf(_ context.Context, childDID string) (domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rel := range s.relationships {
		if rel.ChildDID == childDID {
			return rel, nil
		}
	}
	return domain.Relationship{}, sentinel.ErrNotFound
}

// SaveRelationship appends an edge, enforcing the forest invariants: one
// parent per child and no cycles.
func (s *InMemory) SaveRelationship(_ context.Context, rel domain.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rel.ParentDID == rel.ChildDID {
		return fmt.Errorf("%w: self-referential edge %s", sentinel.ErrInvalidState, rel.ParentDID)
	}
	for _, existing := range s.relationships {
		if existing.ChildDID == rel.ChildDID {
			return fmt.Errorf("%w: %s already has a parent", sentinel.ErrConflict, rel.ChildDID)
		}
	}
	if s.reachable(rel.ChildDID, rel.ParentDID) {
		return fmt.Errorf("%w: edge %s -> %s would create a cycle",
			sentinel.ErrInvalidState, rel.ParentDID, rel.ChildDID)
	}
	s.relationships = append(s.relationships, rel)
	return nil
}

// reachable walks parent->child edges from one DID looking for another.
// Caller holds the lock.
func (s *InMemory) reachable(from, to string) bool {
	if from == to {
		return true
	}
	for _, rel := range s.relationships {
		if rel.ParentDID == from && s.reachable(rel.ChildDID, to) {
			return true
		}
	}
	return false
}

func (s *InMemory) Snapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Events:        append([]domain.DIDEvent(nil), s.events...),
		Attestations:  append([]domain.Attestation(nil), s.attestations...),
		Anchors:       append([]domain.AnchoringEvent(nil), s.anchors...),
		Credentials:   append([]domain.Credential(nil), s.credentials...),
		Relationships: append([]domain.Relationship(nil), s.relationships...),
	}
	for _, ident := range s.identities {
		snap.Identities = append(snap.Identities, ident)
	}
	sort.Slice(snap.Identities, func(i, j int) bool { return snap.Identities[i].DID < snap.Identities[j].DID })
	return snap, nil
}

func (s *InMemory) Restore(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = make(map[string]domain.Identity, len(snap.Identities))
	for _, ident := range snap.Identities {
		s.identities[ident.DID] = ident
	}
	s.events = append([]domain.DIDEvent(nil), snap.Events...)
	s.attestations = append([]domain.Attestation(nil), snap.Attestations...)
	s.anchors = append([]domain.AnchoringEvent(nil), snap.Anchors...)
	s.credentials = append([]domain.Credential(nil), snap.Credentials...)
	s.relationships = append([]domain.Relationship(nil), snap.Relationships...)
	return nil
}
