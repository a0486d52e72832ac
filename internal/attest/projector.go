// Package attest projects heterogeneous ledger events into the normalized
// attestation shape the dashboard renders.
package attest

import (
	"provenant/internal/domain"
)

// Project turns one raw event into zero or more attestations:
//
//   - a witnessed event emits one attestation per witness, each with that
//     witness's own signature and timestamp, anchored iff the proof bundle
//     carries a transaction hash;
//   - an event with only an inline signature emits one attestation attributed
//     to the identity's controller, stamped with the event's own timestamp;
//   - an event with neither is not yet witnessed and projects to nothing (it
//     still shows up as a raw log entry elsewhere).
//
// Remote events are finalized by the time the ledger stores them, so every
// projected attestation is approved by construction.
func Project(event domain.DIDEvent) []domain.Attestation {
	switch ev := event.EvidenceOf().(type) {
	case domain.WitnessedEvidence:
		anchoring := domain.AnchorPending
		if ev.Proof.Anchored() {
			anchoring = domain.AnchorAnchored
		}
		out := make([]domain.Attestation, 0, len(ev.Proof.Witnesses))
		for _, w := range ev.Proof.Witnesses {
			out = append(out, domain.Attestation{
				IdentityDID: event.IdentityDID,
				WitnessDID:  w.WitnessDID,
				Type:        attestationType(event.Type),
				Signature:   w.Signature,
				Timestamp:   w.Timestamp,
				Approval:    domain.ApprovalApproved,
				Anchoring:   anchoring,
			})
		}
		return out
	case domain.SignedEvidence:
		return []domain.Attestation{{
			IdentityDID: event.IdentityDID,
			WitnessDID:  event.IdentityDID, // controller self-attests
			Type:        attestationType(event.Type),
			Signature:   ev.Signature,
			Timestamp:   ev.SignedAt,
			Approval:    domain.ApprovalApproved,
			Anchoring:   domain.AnchorPending,
		}}
	case domain.UnwitnessedEvidence:
		return nil
	}
	return nil
}

// ProjectAll projects a batch of events, preserving per-identity version
// order as handed in.
func ProjectAll(events []domain.DIDEvent) []domain.Attestation {
	var out []domain.Attestation
	for _, ev := range events {
		out = append(out, Project(ev)...)
	}
	return out
}

func attestationType(t domain.EventType) domain.AttestationType {
	switch t {
	case domain.EventCreate:
		return domain.AttestationCreation
	case domain.EventDeactivate:
		return domain.AttestationTransfer
	default:
		return domain.AttestationVerification
	}
}
