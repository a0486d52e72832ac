// Package passport is the write side of the local mirror: every record the
// dashboard authors (new passports, attestations, anchors, credentials)
// enters through here, so cache invalidation and snapshot scheduling have one
// home.
package passport

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"provenant/internal/domain"
	"provenant/internal/mirror"
	"provenant/pkg/sentinel"
)

// Invalidator drops cached bulk-query slices after a local write.
type Invalidator interface {
	InvalidateIdentities()
	InvalidateEvents()
}

// Dirtier schedules snapshot persistence after a mutation.
type Dirtier interface {
	MarkDirty()
}

// Service authors local records.
type Service struct {
	store  mirror.Store
	buffer Dirtier
	caches Invalidator
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs the passport write service.
func New(store mirror.Store, buffer Dirtier, caches Invalidator, opts ...Option) *Service {
	s := &Service{
		store:  store,
		buffer: buffer,
		caches: caches,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIdentityRequest carries the fields a UI wizard collects for a new
// passport.
type CreateIdentityRequest struct {
	DID       string
	Category  domain.Category
	ModelName string
	ParentDID string
	OwnerDID  string
	Metadata  map[string]any
}

// CreateIdentity registers a new passport and its genesis event. A component
// must name its parent, and a DID is never reused.
func (s *Service) CreateIdentity(ctx context.Context, req CreateIdentityRequest) (domain.Identity, error) {
	if !domain.ValidDID(req.DID) {
		return domain.Identity{}, fmt.Errorf("%w: malformed did %q", sentinel.ErrInvalidState, req.DID)
	}
	if req.Category == domain.CategoryComponent && req.ParentDID == "" {
		return domain.Identity{}, fmt.Errorf("%w: component %s must declare a parent", sentinel.ErrInvalidState, req.DID)
	}
	if _, err := s.store.Identity(ctx, req.DID); err == nil {
		return domain.Identity{}, fmt.Errorf("%w: did %s already exists", sentinel.ErrConflict, req.DID)
	}

	now := s.clock()
	category := req.Category
	if category == "" {
		category = domain.CategoryMain
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	ident := domain.Identity{
		DID:       req.DID,
		Category:  category,
		ModelName: req.ModelName,
		ParentDID: req.ParentDID,
		Status:    domain.StatusActive,
		OwnerDID:  req.OwnerDID,
		Metadata:  metadata,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveIdentity(ctx, ident); err != nil {
		return domain.Identity{}, err
	}
	event := domain.DIDEvent{
		ID:          uuid.NewString(),
		IdentityDID: ident.DID,
		Type:        domain.EventCreate,
		VersionID:   1,
		Payload:     map[string]any{"modelName": ident.ModelName},
		Signature:   placeholderSignature(),
		Timestamp:   now,
	}
	if err := s.store.AppendEvent(ctx, event); err != nil {
		return domain.Identity{}, err
	}

	s.afterWrite(ctx, "identity created", "did", ident.DID)
	s.caches.InvalidateIdentities()
	s.caches.InvalidateEvents()
	return ident, nil
}

// AddComponent links a child passport under a parent. The mirror enforces
// the forest invariants on the edge itself.
func (s *Service) AddComponent(ctx context.Context, parentDID, childDID string, kind domain.RelationshipKind, position int) error {
	if _, err := s.store.Identity(ctx, parentDID); err != nil {
		return fmt.Errorf("parent %s: %w", parentDID, err)
	}
	child, err := s.store.Identity(ctx, childDID)
	if err != nil {
		return fmt.Errorf("child %s: %w", childDID, err)
	}
	if kind == "" {
		kind = domain.RelationshipComponent
	}
	if err := s.store.SaveRelationship(ctx, domain.Relationship{
		ParentDID: parentDID,
		ChildDID:  childDID,
		Kind:      kind,
		Position:  position,
	}); err != nil {
		return err
	}
	if child.ParentDID == "" {
		child.ParentDID = parentDID
		child.UpdatedAt = s.clock()
		if err := s.store.SaveIdentity(ctx, child); err != nil {
			return err
		}
	}

	s.afterWrite(ctx, "component linked", "parent", parentDID, "child", childDID)
	s.caches.InvalidateIdentities()
	return nil
}

// AttestationRequest carries a UI-authored attestation. Approval defaults to
// pending; the signature is a placeholder unless the UI supplied one.
type AttestationRequest struct {
	IdentityDID string
	WitnessDID  string
	Type        domain.AttestationType
	Data        string
	Signature   string
	Approval    domain.ApprovalStatus
}

// RecordAttestation stores a locally authored attestation.
func (s *Service) RecordAttestation(ctx context.Context, req AttestationRequest) (domain.Attestation, error) {
	if _, err := s.store.Identity(ctx, req.IdentityDID); err != nil {
		return domain.Attestation{}, fmt.Errorf("identity %s: %w", req.IdentityDID, err)
	}
	approval := req.Approval
	if approval == "" {
		approval = domain.ApprovalPending
	}
	signature := req.Signature
	if signature == "" {
		signature = placeholderSignature()
	}
	attType := req.Type
	if attType == "" {
		attType = domain.AttestationVerification
	}
	att := domain.Attestation{
		ID:          uuid.NewString(),
		IdentityDID: req.IdentityDID,
		WitnessDID:  req.WitnessDID,
		Type:        attType,
		Data:        req.Data,
		Signature:   signature,
		Timestamp:   s.clock(),
		Approval:    approval,
		Anchoring:   domain.AnchorPending,
	}
	if err := s.store.SaveAttestation(ctx, att); err != nil {
		return domain.Attestation{}, err
	}
	s.afterWrite(ctx, "attestation recorded", "did", att.IdentityDID, "witness", att.WitnessDID)
	return att, nil
}

// RecordAnchor stores a placeholder anchoring event for a passport. The
// surrounding app does not submit to a chain; the transaction hash is
// generated, not real.
func (s *Service) RecordAnchor(ctx context.Context, did string, anchorType domain.AnchorType, metadata map[string]any) (domain.AnchoringEvent, error) {
	if _, err := s.store.Identity(ctx, did); err != nil {
		return domain.AnchoringEvent{}, fmt.Errorf("identity %s: %w", did, err)
	}
	if anchorType == "" {
		anchorType = domain.AnchorVerification
	}
	now := s.clock()
	anchor := domain.AnchoringEvent{
		ID:              uuid.NewString(),
		IdentityDID:     did,
		TransactionHash: "0x" + randomHex(32),
		BlockNumber:     now.Unix(),
		Type:            anchorType,
		Timestamp:       now,
		Metadata:        metadata,
	}
	if err := s.store.SaveAnchor(ctx, anchor); err != nil {
		return domain.AnchoringEvent{}, err
	}
	s.afterWrite(ctx, "anchor recorded", "did", did, "tx", anchor.TransactionHash)
	return anchor, nil
}

// AddCredential attaches a credential record to a passport.
func (s *Service) AddCredential(ctx context.Context, cred domain.Credential) (domain.Credential, error) {
	if _, err := s.store.Identity(ctx, cred.IdentityDID); err != nil {
		return domain.Credential{}, fmt.Errorf("identity %s: %w", cred.IdentityDID, err)
	}
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.IssuedAt.IsZero() {
		cred.IssuedAt = s.clock()
	}
	if err := s.store.SaveCredential(ctx, cred); err != nil {
		return domain.Credential{}, err
	}
	s.afterWrite(ctx, "credential added", "did", cred.IdentityDID, "type", cred.Type)
	return cred, nil
}

// UpdateStatus moves a passport to a new lifecycle status, bumping its
// version and appending the corresponding event.
func (s *Service) UpdateStatus(ctx context.Context, did, status string) (domain.Identity, error) {
	ident, err := s.store.Identity(ctx, did)
	if err != nil {
		return domain.Identity{}, err
	}
	now := s.clock()
	ident.Status = status
	ident.Version++
	ident.UpdatedAt = now

	if err := s.store.SaveIdentity(ctx, ident); err != nil {
		return domain.Identity{}, err
	}
	eventType := domain.EventUpdate
	if status == domain.StatusDisposed || status == domain.StatusTampered {
		eventType = domain.EventDeactivate
	}
	event := domain.DIDEvent{
		ID:          uuid.NewString(),
		IdentityDID: did,
		Type:        eventType,
		VersionID:   ident.Version,
		Payload:     map[string]any{"status": status},
		Signature:   placeholderSignature(),
		Timestamp:   now,
	}
	if err := s.store.AppendEvent(ctx, event); err != nil {
		return domain.Identity{}, err
	}

	s.afterWrite(ctx, "status updated", "did", did, "status", status)
	s.caches.InvalidateIdentities()
	s.caches.InvalidateEvents()
	return ident, nil
}

func (s *Service) afterWrite(ctx context.Context, msg string, args ...any) {
	if s.buffer != nil {
		s.buffer.MarkDirty()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

// placeholderSignature generates the stand-in signature used across the app.
// Real signing is out of scope for the dashboard.
func placeholderSignature() string {
	return "sig-" + randomHex(32)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
