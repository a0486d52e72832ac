package domain

import (
	"fmt"
	"strings"
)

// ParsedDID holds the segments of a did:webvh-style identifier. The SCID is
// the self-certifying segment used to locate the identity's protocol files.
type ParsedDID struct {
	Method string
	SCID   string
	Domain string
	Path   []string
}

// ParseDID splits "did:<method>:<scid>:<domain>[:<path>...]" into segments.
func ParseDID(did string) (ParsedDID, error) {
	parts := strings.Split(did, ":")
	if len(parts) < 3 || parts[0] != "did" {
		return ParsedDID{}, fmt.Errorf("malformed did %q", did)
	}
	for _, p := range parts[1:] {
		if p == "" {
			return ParsedDID{}, fmt.Errorf("malformed did %q: empty segment", did)
		}
	}
	parsed := ParsedDID{Method: parts[1], SCID: parts[2]}
	if len(parts) > 3 {
		parsed.Domain = parts[3]
	}
	if len(parts) > 4 {
		parsed.Path = parts[4:]
	}
	return parsed, nil
}

// ValidDID reports whether a string is a syntactically valid DID. It is the
// minimum bar for an identity to earn any trust credit at all.
func ValidDID(did string) bool {
	_, err := ParseDID(did)
	return err == nil
}
