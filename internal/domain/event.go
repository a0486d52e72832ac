package domain

import "time"

// EventType classifies a ledger event.
type EventType string

const (
	EventCreate     EventType = "create"
	EventUpdate     EventType = "update"
	EventDeactivate EventType = "deactivate"
)

// WitnessSignature is one witness's countersignature over an event.
type WitnessSignature struct {
	WitnessDID string    `json:"witnessDid"`
	Signature  string    `json:"signature"`
	Timestamp  time.Time `json:"timestamp"`
}

// WitnessProofBundle is the anchoring evidence attached to a witnessed event:
// the batch it was proven in, the Merkle root over the batch, the individual
// witness signatures, and the on-chain anchor when one exists.
type WitnessProofBundle struct {
	BatchID         string             `json:"batchId"`
	MerkleRoot      string             `json:"merkleRoot"`
	Witnesses       []WitnessSignature `json:"witnesses"`
	TransactionHash string             `json:"transactionHash,omitempty"`
	BlockNumber     int64              `json:"blockNumber,omitempty"`
}

// Anchored reports whether the bundle carries an on-chain transaction.
func (b WitnessProofBundle) Anchored() bool {
	return b.TransactionHash != ""
}

// DIDEvent is one append-only record in an identity's ledger history. Events
// for one identity are causally ordered by VersionID; a source-assigned ID is
// never trusted across sources (see Fingerprint).
type DIDEvent struct {
	ID          string         `json:"id"`
	IdentityDID string         `json:"identityDid"`
	Type        EventType      `json:"type"`
	VersionID   int64          `json:"versionId"`
	Payload     map[string]any `json:"payload,omitempty"`
	Signature   string         `json:"signature,omitempty"`
	Proof       *WitnessProofBundle `json:"proof,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Evidence is the tagged variant over the three shapes an event can take:
// witnessed (proof bundle with signatures), signed (inline signature only),
// or unwitnessed (neither). The projector switches exhaustively over it so a
// new shape cannot be silently half-handled.
type Evidence interface{ evidence() }

// WitnessedEvidence carries the proof bundle of a multi-witness event.
type WitnessedEvidence struct {
	Proof WitnessProofBundle
}

// SignedEvidence carries the inline signature of a single-signature event.
type SignedEvidence struct {
	Signature string
	SignedAt  time.Time
}

// UnwitnessedEvidence marks a pending event with no attestation value yet.
type UnwitnessedEvidence struct{}

func (WitnessedEvidence) evidence()   {}
func (SignedEvidence) evidence()      {}
func (UnwitnessedEvidence) evidence() {}

// EvidenceOf classifies an event into exactly one evidence case. A proof
// bundle with an empty witness list counts as unwitnessed unless the event
// also carries an inline signature.
func (e DIDEvent) EvidenceOf() Evidence {
	if e.Proof != nil && len(e.Proof.Witnesses) > 0 {
		return WitnessedEvidence{Proof: *e.Proof}
	}
	if e.Signature != "" {
		return SignedEvidence{Signature: e.Signature, SignedAt: e.Timestamp}
	}
	return UnwitnessedEvidence{}
}
