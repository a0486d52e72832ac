package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Fingerprints deduplicate records across the remote ledger and the local
// mirror. The same logical event arrives with different synthetic IDs from
// each source, so dedup keys hash the semantically meaningful fields instead.

func fingerprint(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns the attestation's stable content fingerprint.
func (a Attestation) Fingerprint() string {
	return fingerprint(a.IdentityDID, a.WitnessDID, string(a.Type), a.Signature)
}

// Fingerprint returns the anchoring event's stable content fingerprint.
func (e AnchoringEvent) Fingerprint() string {
	return fingerprint(e.IdentityDID, e.TransactionHash)
}

// Fingerprint returns the event's stable content fingerprint. VersionID pins
// the position in the per-identity history so reordered duplicates collide.
func (e DIDEvent) Fingerprint() string {
	return fingerprint(e.IdentityDID, string(e.Type), strconv.FormatInt(e.VersionID, 10), e.Signature)
}
