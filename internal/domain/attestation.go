package domain

import "time"

// ApprovalStatus tracks the review state of an attestation. Remote-derived
// attestations are approved by construction: the ledger only stores finalized
// events. Locally authored ones carry whatever the UI action set.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// AnchorStatus tracks whether evidence made it on chain.
type AnchorStatus string

const (
	AnchorPending  AnchorStatus = "pending"
	AnchorAnchored AnchorStatus = "anchored"
)

// AttestationType classifies what an attestation asserts about a passport.
type AttestationType string

const (
	AttestationCreation     AttestationType = "creation"
	AttestationVerification AttestationType = "verification"
	AttestationTransfer     AttestationType = "transfer"
)

// Attestation is the normalized view of witnessed evidence: one record per
// (identity, witness) pair, projected from heterogeneous event shapes or
// authored directly by a UI action.
type Attestation struct {
	ID          string          `json:"id"`
	IdentityDID string          `json:"identityDid"`
	WitnessDID  string          `json:"witnessDid"`
	Type        AttestationType `json:"type"`
	Data        string          `json:"data,omitempty"`
	Signature   string          `json:"signature"`
	Timestamp   time.Time       `json:"timestamp"`
	Approval    ApprovalStatus  `json:"approval"`
	Anchoring   AnchorStatus    `json:"anchoring"`
}

// AnchorType classifies what an anchoring event recorded.
type AnchorType string

const (
	AnchorCreation     AnchorType = "creation"
	AnchorVerification AnchorType = "verification"
	AnchorTransfer     AnchorType = "transfer"
)

// AnchoringEvent records one on-chain anchor for a passport. Always derived,
// either from a witness-proof bundle or the local placeholder generator.
type AnchoringEvent struct {
	ID              string         `json:"id"`
	IdentityDID     string         `json:"identityDid"`
	TransactionHash string         `json:"transactionHash"`
	BlockNumber     int64          `json:"blockNumber"`
	MerkleRoot      string         `json:"merkleRoot,omitempty"`
	Type            AnchorType     `json:"type"`
	Timestamp       time.Time      `json:"timestamp"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Credential is a verifiable credential attached to a passport. Verification
// is performed elsewhere; this layer only counts valid ones.
type Credential struct {
	ID          string    `json:"id"`
	IdentityDID string    `json:"identityDid"`
	Type        string    `json:"type"`
	IssuerDID   string    `json:"issuerDid"`
	Status      string    `json:"status"` // "valid", "expired", "revoked", ...
	IssuedAt    time.Time `json:"issuedAt"`
}

// CredentialValid is the Status value that earns trust credit.
const CredentialValid = "valid"
