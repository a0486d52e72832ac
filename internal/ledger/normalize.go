package ledger

import (
	"sort"
	"time"

	"provenant/internal/domain"
)

// The remote service predates the dashboard's schema and several fields go by
// two names depending on backend version. Normalization harmonizes them and
// default-fills what a partial rollout may omit, so callers never see the
// wire shape.

type remoteIdentity struct {
	DID       string         `json:"did"`
	ID        string         `json:"id"` // older backends
	Category  string         `json:"category"`
	Type      string         `json:"type"` // older name for category
	ModelName string         `json:"modelName"`
	Name      string         `json:"name"` // older name for modelName
	ParentDID string         `json:"parentDid"`
	Status    string         `json:"status"`
	OwnerDID  string         `json:"ownerDid"`
	Owner     string         `json:"owner"`
	Metadata  map[string]any `json:"metadata"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (r remoteIdentity) normalize() domain.Identity {
	ident := domain.Identity{
		DID:       firstNonEmpty(r.DID, r.ID),
		Category:  domain.Category(firstNonEmpty(r.Category, r.Type, string(domain.CategoryMain))),
		ModelName: firstNonEmpty(r.ModelName, r.Name),
		ParentDID: r.ParentDID,
		Status:    firstNonEmpty(r.Status, domain.StatusActive),
		OwnerDID:  firstNonEmpty(r.OwnerDID, r.Owner),
		Metadata:  r.Metadata,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if ident.Metadata == nil {
		ident.Metadata = map[string]any{}
	}
	if ident.Version == 0 {
		ident.Version = 1
	}
	return ident
}

type remoteWitness struct {
	WitnessDID string    `json:"witnessDid"`
	DID        string    `json:"did"`
	Signature  string    `json:"signature"`
	Proof      string    `json:"proof"` // older name for signature
	Timestamp  time.Time `json:"timestamp"`
}

type remoteProof struct {
	BatchID         string          `json:"batchId"`
	MerkleRoot      string          `json:"merkleRoot"`
	Witnesses       []remoteWitness `json:"witnesses"`
	TransactionHash string          `json:"transactionHash"`
	TxHash          string          `json:"txHash"`
	BlockNumber     int64           `json:"blockNumber"`
}

type remoteEvent struct {
	ID          string         `json:"id"`
	IdentityDID string         `json:"identityDid"`
	DID         string         `json:"did"`
	Type        string         `json:"type"`
	EventType   string         `json:"eventType"`
	VersionID   int64          `json:"versionId"`
	Version     int64          `json:"version"`
	Payload     map[string]any `json:"payload"`
	Signature   string         `json:"signature"`
	Proof       *remoteProof   `json:"proof"`
	Timestamp   time.Time      `json:"timestamp"`
}

func (r remoteEvent) normalize() domain.DIDEvent {
	ev := domain.DIDEvent{
		ID:          r.ID,
		IdentityDID: firstNonEmpty(r.IdentityDID, r.DID),
		Type:        domain.EventType(firstNonEmpty(r.Type, r.EventType, string(domain.EventUpdate))),
		VersionID:   r.VersionID,
		Payload:     r.Payload,
		Signature:   r.Signature,
		Timestamp:   r.Timestamp,
	}
	if ev.VersionID == 0 {
		ev.VersionID = r.Version
	}
	if ev.Payload == nil {
		ev.Payload = map[string]any{}
	}
	if r.Proof != nil {
		proof := domain.WitnessProofBundle{
			BatchID:         r.Proof.BatchID,
			MerkleRoot:      r.Proof.MerkleRoot,
			TransactionHash: firstNonEmpty(r.Proof.TransactionHash, r.Proof.TxHash),
			BlockNumber:     r.Proof.BlockNumber,
		}
		for _, w := range r.Proof.Witnesses {
			proof.Witnesses = append(proof.Witnesses, domain.WitnessSignature{
				WitnessDID: firstNonEmpty(w.WitnessDID, w.DID),
				Signature:  firstNonEmpty(w.Signature, w.Proof),
				Timestamp:  w.Timestamp,
			})
		}
		ev.Proof = &proof
	}
	return ev
}

func sortEventsByVersion(events []domain.DIDEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].IdentityDID != events[j].IdentityDID {
			return events[i].IdentityDID < events[j].IdentityDID
		}
		return events[i].VersionID < events[j].VersionID
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
