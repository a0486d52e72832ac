// Package verify checks an identity's raw protocol files: the hash-chained
// did.jsonl log and the did-witness.json proof document, fetched straight
// from storage rather than through the database.
package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"provenant/internal/domain"
	"provenant/internal/ledger"
	"provenant/internal/verify/metrics"
	"provenant/pkg/sentinel"
)

// ProtocolFiles fetches the two raw files for a SCID.
type ProtocolFiles interface {
	DIDLog(ctx context.Context, scid string) ([]ledger.LogEntry, error)
	WitnessProofs(ctx context.Context, scid string) (*ledger.WitnessDocument, error)
}

// Result is the structured outcome of a verification pass. Verification
// never throws: whatever partial evidence was gathered is reported, and
// fetch problems land in Errors.
type Result struct {
	HashChainValid bool     `json:"hashChainValid"`
	ChainLength    int      `json:"chainLength"`
	WitnessValid   bool     `json:"witnessValid"`
	WitnessCount   int      `json:"witnessCount"`
	Errors         []string `json:"errors,omitempty"`
}

// Verifier runs protocol-file verification for one identity at a time.
type Verifier struct {
	files   ProtocolFiles
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the verifier logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// WithMetrics sets the verifier metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) {
		v.metrics = m
	}
}

// New constructs a Verifier over a protocol-file source, normally the ledger
// client.
func New(files ProtocolFiles, opts ...Option) *Verifier {
	v := &Verifier{files: files}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify fetches both protocol files for the identity's SCID and checks
// hash-chain continuity and witness-proof presence. The two fetches run
// concurrently; a failure of one does not abort the other.
func (v *Verifier) Verify(ctx context.Context, did string) Result {
	if v.metrics != nil {
		start := time.Now()
		defer func() { v.metrics.VerifyDuration.Observe(time.Since(start).Seconds()) }()
	}

	var result Result

	parsed, err := domain.ParseDID(did)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	var (
		mu      sync.Mutex
		entries []ledger.LogEntry
		doc     *ledger.WitnessDocument
	)

	// Errors are evidence here, not failures, so the group never aborts.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched, err := v.files.DIDLog(gctx, parsed.SCID)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("did log: %v", err))
			return nil
		}
		entries = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := v.files.WitnessProofs(gctx, parsed.SCID)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			// Absence means "not yet anchored", a normal state.
			if !errors.Is(err, sentinel.ErrNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("witness proofs: %v", err))
			}
			return nil
		}
		doc = fetched
		return nil
	})
	_ = g.Wait()

	result.ChainLength = len(entries)
	result.HashChainValid = chainValid(entries)
	if !result.HashChainValid && len(entries) > 1 {
		result.Errors = append(result.Errors, "hash chain discontinuity")
	}

	if doc != nil {
		result.WitnessCount = len(doc.AnchoringProofs)
		result.WitnessValid = result.WitnessCount > 0
	}

	if v.logger != nil {
		v.logger.DebugContext(ctx, "protocol files verified",
			"did", did,
			"chain_valid", result.HashChainValid,
			"chain_length", result.ChainLength,
			"witness_count", result.WitnessCount,
		)
	}
	return result
}

// chainValid checks every consecutive pair: the hash declared by entry i must
// equal the recomputed hash of entry i-1 exactly. Any mismatch invalidates
// the chain; there is no relaxed comparison.
func chainValid(entries []ledger.LogEntry) bool {
	if len(entries) == 0 {
		return false
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].PreviousHash != EntryHash(entries[i-1]) {
			return false
		}
	}
	return true
}

// EntryHash is the content hash linking consecutive log entries: SHA-256
// over the entry's stored bytes, hex encoded.
func EntryHash(entry ledger.LogEntry) string {
	sum := sha256.Sum256(entry.Raw)
	return hex.EncodeToString(sum[:])
}
