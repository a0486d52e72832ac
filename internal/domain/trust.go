package domain

// TrustBreakdown itemizes the five weighted signals behind a trust score.
// Caps: identity 25, anchoring 25, attestation 25, credentials 15, hierarchy 10.
type TrustBreakdown struct {
	Identity    int `json:"identity"`
	Anchoring   int `json:"anchoring"`
	Attestation int `json:"attestation"`
	Credentials int `json:"credentials"`
	Hierarchy   int `json:"hierarchy"`
}

// TrustScore is the bounded composite trust signal for one passport.
// Recomputed on demand, never persisted.
type TrustScore struct {
	IdentityDID string         `json:"identityDid"`
	Score       int            `json:"score"` // always in [0,100]
	Breakdown   TrustBreakdown `json:"breakdown"`
}
