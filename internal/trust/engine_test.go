package trust

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenant/internal/domain"
	"provenant/internal/verify"
	"provenant/pkg/sentinel"
)

type fakeView struct {
	identities map[string]domain.Identity
	atts       map[string][]domain.Attestation
	anchors    map[string][]domain.AnchoringEvent
}

func (f *fakeView) Identity(_ context.Context, did string) (domain.Identity, error) {
	ident, ok := f.identities[did]
	if !ok {
		return domain.Identity{}, sentinel.ErrNotFound
	}
	return ident, nil
}

func (f *fakeView) Identities(context.Context) []domain.Identity {
	out := make([]domain.Identity, 0, len(f.identities))
	for _, ident := range f.identities {
		out = append(out, ident)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DID < out[j].DID })
	return out
}

func (f *fakeView) Attestations(_ context.Context, did string) []domain.Attestation {
	return f.atts[did]
}

func (f *fakeView) Anchors(_ context.Context, did string) []domain.AnchoringEvent {
	return f.anchors[did]
}

type fakeEdges struct {
	rels    map[string][]domain.Relationship
	parents map[string]domain.Relationship
	creds   map[string][]domain.Credential
}

func (f *fakeEdges) Relationships(_ context.Context, parentDID string) ([]domain.Relationship, error) {
	return f.rels[parentDID], nil
}

func (f *fakeEdges) ParentOf(_ context.Context, childDID string) (domain.Relationship, error) {
	rel, ok := f.parents[childDID]
	if !ok {
		return domain.Relationship{}, sentinel.ErrNotFound
	}
	return rel, nil
}

func (f *fakeEdges) Credentials(_ context.Context, did string) ([]domain.Credential, error) {
	return f.creds[did], nil
}

type stubVerifier struct {
	result verify.Result
}

func (s *stubVerifier) Verify(context.Context, string) verify.Result {
	return s.result
}

func emptyEdges() *fakeEdges {
	return &fakeEdges{
		rels:    map[string][]domain.Relationship{},
		parents: map[string]domain.Relationship{},
		creds:   map[string][]domain.Credential{},
	}
}

func mainIdentity(did string) domain.Identity {
	return domain.Identity{DID: did, Category: domain.CategoryMain, Status: domain.StatusActive}
}

func componentIdentity(did, parent string) domain.Identity {
	return domain.Identity{DID: did, Category: domain.CategoryComponent, ParentDID: parent, Status: domain.StatusActive}
}

func TestScore_FloorForValidDIDWithNoEvidence(t *testing.T) {
	engine := NewEngine(&fakeView{identities: map[string]domain.Identity{}}, emptyEdges(), &stubVerifier{})

	score := engine.Score(context.Background(), "did:webvh:scid9:unknown.example.com")

	assert.Equal(t, 20, score.Score, "a well-formed but unverified DID never renders as zero trust")
	assert.Equal(t, 10, score.Breakdown.Identity)
}

func TestScore_MalformedDIDGetsNoFloor(t *testing.T) {
	engine := NewEngine(&fakeView{identities: map[string]domain.Identity{}}, emptyEdges(), &stubVerifier{})

	score := engine.Score(context.Background(), "garbage")

	assert.Zero(t, score.Score)
}

func TestScore_AllSignalsCapAtHundred(t *testing.T) {
	const did = "did:webvh:scid1:factory.example.com"
	view := &fakeView{
		identities: map[string]domain.Identity{did: mainIdentity(did)},
		atts: map[string][]domain.Attestation{did: {
			{ID: "a1", Approval: domain.ApprovalApproved},
			{ID: "a2", Approval: domain.ApprovalApproved},
			{ID: "a3", Approval: domain.ApprovalApproved},
			{ID: "a4", Approval: domain.ApprovalApproved},
			{ID: "a5", Approval: domain.ApprovalApproved},
			{ID: "a6", Approval: domain.ApprovalApproved},
		}},
	}
	edges := emptyEdges()
	edges.creds[did] = []domain.Credential{
		{ID: "c1", Status: domain.CredentialValid},
		{ID: "c2", Status: domain.CredentialValid},
		{ID: "c3", Status: domain.CredentialValid},
		{ID: "c4", Status: domain.CredentialValid},
	}
	verifier := &stubVerifier{result: verify.Result{
		HashChainValid: true,
		ChainLength:    3,
		WitnessValid:   true,
		WitnessCount:   2,
	}}
	engine := NewEngine(view, edges, verifier)

	score := engine.Score(context.Background(), did)

	assert.Equal(t, 100, score.Score)
	assert.Equal(t, domain.TrustBreakdown{
		Identity:    25,
		Anchoring:   25,
		Attestation: 25,
		Credentials: 15,
		Hierarchy:   10,
	}, score.Breakdown)
}

func TestScore_IdentitySignalDegrades(t *testing.T) {
	tests := []struct {
		name   string
		result verify.Result
		want   int
	}{
		{"verified chain", verify.Result{HashChainValid: true, ChainLength: 2}, 25},
		{"broken chain still fetched", verify.Result{HashChainValid: false, ChainLength: 2}, 15},
		{"no log at all", verify.Result{}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(&fakeView{identities: map[string]domain.Identity{}}, emptyEdges(), &stubVerifier{result: tt.result})
			score := engine.Score(context.Background(), "did:webvh:scid1:factory.example.com")
			assert.Equal(t, tt.want, score.Breakdown.Identity)
		})
	}
}

func TestScore_DatabaseAnchorsEarnPartialCredit(t *testing.T) {
	const did = "did:webvh:scid1:factory.example.com"
	view := &fakeView{
		identities: map[string]domain.Identity{},
		anchors: map[string][]domain.AnchoringEvent{did: {
			{ID: "an1", IdentityDID: did, TransactionHash: "0xabc", Timestamp: time.Now()},
		}},
	}
	engine := NewEngine(view, emptyEdges(), &stubVerifier{})

	score := engine.Score(context.Background(), did)

	assert.Equal(t, 15, score.Breakdown.Anchoring, "record-only anchoring scores below storage-backed proofs")
}

func TestScore_AttestationSignal(t *testing.T) {
	const did = "did:webvh:scid1:factory.example.com"
	tests := []struct {
		name string
		atts []domain.Attestation
		want int
	}{
		{"two approved", []domain.Attestation{
			{Approval: domain.ApprovalApproved},
			{Approval: domain.ApprovalApproved},
		}, 16},
		{"only pending", []domain.Attestation{{Approval: domain.ApprovalPending}}, 5},
		{"rejected count for nothing", []domain.Attestation{{Approval: domain.ApprovalRejected}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &fakeView{
				identities: map[string]domain.Identity{},
				atts:       map[string][]domain.Attestation{did: tt.atts},
			}
			engine := NewEngine(view, emptyEdges(), &stubVerifier{})
			score := engine.Score(context.Background(), did)
			assert.Equal(t, tt.want, score.Breakdown.Attestation)
		})
	}
}

func TestScore_ComponentEarnsHierarchyCreditForDeclaredParent(t *testing.T) {
	const parent = "did:webvh:scidp:factory.example.com"
	const child = "did:webvh:scidc:factory.example.com"
	view := &fakeView{identities: map[string]domain.Identity{
		parent: mainIdentity(parent),
		child:  componentIdentity(child, parent),
	}}
	engine := NewEngine(view, emptyEdges(), &stubVerifier{})

	score := engine.Score(context.Background(), child)

	assert.Equal(t, 6, score.Breakdown.Hierarchy)
}

func TestScore_MissingChildCostsHierarchyCredit(t *testing.T) {
	const parent = "did:example:w1"
	view := &fakeView{identities: map[string]domain.Identity{
		parent:           mainIdentity(parent),
		"did:example:g1": componentIdentity("did:example:g1", parent),
	}}
	edges := emptyEdges()
	edges.rels[parent] = []domain.Relationship{
		{ParentDID: parent, ChildDID: "did:example:g1", Kind: domain.RelationshipComponent, Position: 0},
		{ParentDID: parent, ChildDID: "did:example:f1", Kind: domain.RelationshipComponent, Position: 1},
	}
	engine := NewEngine(view, edges, &stubVerifier{})

	score := engine.Score(context.Background(), parent)

	assert.Equal(t, 7, score.Breakdown.Hierarchy, "one issue costs credit without zeroing the signal")
	require.Greater(t, score.Breakdown.Hierarchy, 0)
	require.Less(t, score.Breakdown.Hierarchy, maxHierarchy)
}
