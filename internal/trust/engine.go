// Package trust folds several weak verification signals into one bounded
// score per passport. The score is recomputed in full on every call and never
// persisted; it is a summary for the dashboard, not a stored fact.
package trust

import (
	"context"
	"log/slog"

	"provenant/internal/domain"
	"provenant/internal/verify"
)

// Sub-score caps. They sum to exactly 100.
const (
	maxIdentity    = 25
	maxAnchoring   = 25
	maxAttestation = 25
	maxCredentials = 15
	maxHierarchy   = 10

	// Any syntactically valid DID scores at least this much, so legitimate
	// but merely-unverified passports never render as zero trust.
	floorScore = 20
)

// View is the merged read surface the engine scores against.
type View interface {
	Identity(ctx context.Context, did string) (domain.Identity, error)
	Identities(ctx context.Context) []domain.Identity
	Attestations(ctx context.Context, did string) []domain.Attestation
	Anchors(ctx context.Context, did string) []domain.AnchoringEvent
}

// Edges exposes the local-only collections the merged view does not carry.
type Edges interface {
	Relationships(ctx context.Context, parentDID string) ([]domain.Relationship, error)
	ParentOf(ctx context.Context, childDID string) (domain.Relationship, error)
	Credentials(ctx context.Context, did string) ([]domain.Credential, error)
}

// ProtocolVerifier runs the raw protocol-file checks for one identity.
type ProtocolVerifier interface {
	Verify(ctx context.Context, did string) verify.Result
}

// Engine computes trust scores.
type Engine struct {
	view      View
	edges     Edges
	verifier  ProtocolVerifier
	hierarchy *HierarchyValidator
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine constructs a trust engine.
func NewEngine(view View, edges Edges, verifier ProtocolVerifier, opts ...Option) *Engine {
	e := &Engine{
		view:      view,
		edges:     edges,
		verifier:  verifier,
		hierarchy: NewHierarchyValidator(view, edges),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hierarchy exposes the engine's validator for direct dashboard queries.
func (e *Engine) Hierarchy() *HierarchyValidator {
	return e.hierarchy
}

// Score computes the bounded trust score for one identity. Every signal
// degrades independently: an absent signal contributes zero rather than
// failing the computation.
func (e *Engine) Score(ctx context.Context, did string) domain.TrustScore {
	verification := e.verifier.Verify(ctx, did)

	breakdown := domain.TrustBreakdown{
		Identity:    e.identityScore(did, verification),
		Anchoring:   e.anchoringScore(ctx, did, verification),
		Attestation: e.attestationScore(ctx, did),
		Credentials: e.credentialScore(ctx, did),
		Hierarchy:   e.hierarchyScore(ctx, did),
	}

	score := breakdown.Identity + breakdown.Anchoring + breakdown.Attestation +
		breakdown.Credentials + breakdown.Hierarchy
	if domain.ValidDID(did) && score < floorScore {
		score = floorScore
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	if e.logger != nil {
		e.logger.DebugContext(ctx, "trust score computed",
			"did", did,
			"score", score,
			"identity", breakdown.Identity,
			"anchoring", breakdown.Anchoring,
			"attestation", breakdown.Attestation,
			"credentials", breakdown.Credentials,
			"hierarchy", breakdown.Hierarchy,
		)
	}
	return domain.TrustScore{IdentityDID: did, Score: score, Breakdown: breakdown}
}

// identityScore: full credit for a verified hash chain with entries, partial
// for a chain that was fetched but did not validate, minimal for a merely
// well-formed DID.
func (e *Engine) identityScore(did string, verification verify.Result) int {
	switch {
	case verification.HashChainValid && verification.ChainLength > 0:
		return maxIdentity
	case verification.ChainLength > 0:
		return 15
	case domain.ValidDID(did):
		return 10
	}
	return 0
}

// anchoringScore: witness proofs found on storage beat anchoring events that
// exist only as database records.
func (e *Engine) anchoringScore(ctx context.Context, did string, verification verify.Result) int {
	if verification.WitnessValid {
		return maxAnchoring
	}
	if len(e.view.Anchors(ctx, did)) > 0 {
		return 15
	}
	return 0
}

// attestationScore: base credit plus a per-attestation increment for
// approved attestations, capped; a small flat credit when only pending ones
// exist.
func (e *Engine) attestationScore(ctx context.Context, did string) int {
	var approved, pending int
	for _, att := range e.view.Attestations(ctx, did) {
		switch att.Approval {
		case domain.ApprovalApproved:
			approved++
		case domain.ApprovalPending:
			pending++
		}
	}
	if approved > 0 {
		score := 10 + 3*approved
		if score > maxAttestation {
			score = maxAttestation
		}
		return score
	}
	if pending > 0 {
		return 5
	}
	return 0
}

func (e *Engine) credentialScore(ctx context.Context, did string) int {
	creds, err := e.edges.Credentials(ctx, did)
	if err != nil {
		return 0
	}
	var valid int
	for _, cred := range creds {
		if cred.Status == domain.CredentialValid {
			valid++
		}
	}
	score := 5 * valid
	if score > maxCredentials {
		score = maxCredentials
	}
	return score
}

// hierarchyScore: a main passport earns full credit for a clean hierarchy and
// loses credit per structural issue; a component earns credit simply for
// declaring its parent.
func (e *Engine) hierarchyScore(ctx context.Context, did string) int {
	ident, err := e.view.Identity(ctx, did)
	if err != nil {
		return 0
	}
	switch ident.Category {
	case domain.CategoryMain:
		report := e.hierarchy.Check(ctx, did)
		if report.Valid {
			return maxHierarchy
		}
		score := maxHierarchy - 3*len(report.Issues)
		if score < 0 {
			score = 0
		}
		return score
	case domain.CategoryComponent:
		if ident.ParentDID != "" {
			return 6
		}
		if _, err := e.edges.ParentOf(ctx, did); err == nil {
			return 6
		}
	}
	return 0
}
