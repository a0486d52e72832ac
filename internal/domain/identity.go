package domain

import "time"

// Category distinguishes top-level passports from component passports.
type Category string

const (
	CategoryMain      Category = "main"
	CategoryComponent Category = "component"
)

// Lifecycle status is an open string enum; the ledger may introduce states the
// dashboard has never seen, so no validation happens on read.
const (
	StatusActive   = "active"
	StatusDisposed = "disposed"
	StatusTampered = "tampered"
)

// Identity is a Digital Product Passport: the identity record for a product
// or one of its components, keyed by DID. A DID is never reused.
type Identity struct {
	DID       string         `json:"did"`
	Category  Category       `json:"category"`
	ModelName string         `json:"modelName"`
	ParentDID string         `json:"parentDid,omitempty"`
	Status    string         `json:"status"`
	OwnerDID  string         `json:"ownerDid"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// RelationshipKind names the edge type between a parent and child passport.
type RelationshipKind string

const (
	RelationshipComponent RelationshipKind = "component"
	RelationshipAssembly  RelationshipKind = "assembly"
)

// Relationship is one parent/child edge. Edges form a forest: no cycles, and
// at most one parent edge per child.
type Relationship struct {
	ParentDID string           `json:"parentDid"`
	ChildDID  string           `json:"childDid"`
	Kind      RelationshipKind `json:"kind"`
	Position  int              `json:"position"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}
