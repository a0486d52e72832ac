package reconcile

import "provenant/internal/domain"

// Fingerprinted is any record with a stable content fingerprint. Merging
// dedupes on it rather than on source-assigned IDs: the same logical event
// arrives with different synthetic IDs from the remote service and the local
// mirror.
type Fingerprinted interface {
	Fingerprint() string
}

// Merge combines locally authored records with remote ones. Local records go
// into the seen-set first because they represent the most recent user action;
// remote records append only if their fingerprint is new. Re-merging the same
// two sources any number of times yields the same result set.
func Merge[T Fingerprinted](local, remote []T) []T {
	seen := make(map[string]struct{}, len(local)+len(remote))
	out := make([]T, 0, len(local)+len(remote))
	for _, rec := range local {
		fp := rec.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, rec)
	}
	for _, rec := range remote {
		fp := rec.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// MergeIdentities combines identity sets keyed by DID, local first. A DID is
// never reused, so the DID itself is the identity's stable key.
func MergeIdentities(local, remote []domain.Identity) []domain.Identity {
	seen := make(map[string]struct{}, len(local)+len(remote))
	out := make([]domain.Identity, 0, len(local)+len(remote))
	for _, ident := range local {
		if _, dup := seen[ident.DID]; dup {
			continue
		}
		seen[ident.DID] = struct{}{}
		out = append(out, ident)
	}
	for _, ident := range remote {
		if _, dup := seen[ident.DID]; dup {
			continue
		}
		seen[ident.DID] = struct{}{}
		out = append(out, ident)
	}
	return out
}
