package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, clients, and the ledger
// layer return these (optionally wrapped) so services can translate them into
// fallbacks without string matching.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity or protocol file does not exist
// - ErrUnavailable: remote ledger or backing store temporarily unreachable
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrConflict: write collides with an existing record
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
