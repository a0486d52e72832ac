// Package reconcile answers the dashboard's bulk queries from whichever
// source can serve them: the remote ledger when reachable, the TTL cache, or
// the local mirror. Nothing here ever returns an error to the caller; the UI
// degrades to local data instead.
package reconcile

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/singleflight"

	"provenant/internal/attest"
	"provenant/internal/domain"
	"provenant/internal/mirror"
	"provenant/internal/reconcile/metrics"
	"provenant/pkg/sentinel"
)

const (
	keyIdentities = "identities"
	keyEvents     = "events"
)

// RemoteFetcher is the remote ledger's bulk query surface.
type RemoteFetcher interface {
	Identities(ctx context.Context) ([]domain.Identity, error)
	Events(ctx context.Context, did string) ([]domain.DIDEvent, error)
}

// Availability reports whether the remote ledger is worth calling right now.
type Availability interface {
	IsAvailable(ctx context.Context) bool
}

// Service owns the logical current view: remote-sourced slices merged with
// locally authored records, deduplicated by content fingerprint.
type Service struct {
	remote  RemoteFetcher
	health  Availability
	mirror  mirror.Store
	cache   *Cache
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the service metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs the reconciliation service.
func New(remote RemoteFetcher, health Availability, store mirror.Store, cache *Cache, opts ...Option) *Service {
	s := &Service{
		remote: remote,
		health: health,
		mirror: store,
		cache:  cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identities returns the merged identity set: locally authored passports
// first, remote ones appended unless the DID is already present.
func (s *Service) Identities(ctx context.Context) []domain.Identity {
	remote := s.remoteIdentities(ctx)
	local, err := s.mirror.Identities(ctx)
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "mirror identity read failed", "error", err)
	}
	return MergeIdentities(local, remote)
}

// Identity returns one merged identity by DID.
func (s *Service) Identity(ctx context.Context, did string) (domain.Identity, error) {
	for _, ident := range s.Identities(ctx) {
		if ident.DID == did {
			return ident, nil
		}
	}
	return domain.Identity{}, sentinel.ErrNotFound
}

// Events returns the merged full event set, deduplicated by fingerprint.
func (s *Service) Events(ctx context.Context) []domain.DIDEvent {
	remote := s.remoteEvents(ctx)
	local, err := s.mirror.Events(ctx)
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "mirror event read failed", "error", err)
	}
	return Merge(local, remote)
}

// EventsByDID returns one identity's merged events in ledger version order.
func (s *Service) EventsByDID(ctx context.Context, did string) []domain.DIDEvent {
	var out []domain.DIDEvent
	for _, ev := range s.Events(ctx) {
		if ev.IdentityDID == did {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VersionID < out[j].VersionID })
	return out
}

// Attestations returns the merged attestation view for one identity: locally
// authored attestations first, then ones projected from merged events.
func (s *Service) Attestations(ctx context.Context, did string) []domain.Attestation {
	local, err := s.mirror.Attestations(ctx, did)
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "mirror attestation read failed", "error", err)
	}
	projected := attest.ProjectAll(s.EventsByDID(ctx, did))
	return Merge(local, projected)
}

// Anchors returns the merged anchoring events for one identity: locally
// recorded anchors first, then ones derived from witnessed events.
func (s *Service) Anchors(ctx context.Context, did string) []domain.AnchoringEvent {
	local, err := s.mirror.Anchors(ctx, did)
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "mirror anchor read failed", "error", err)
	}
	return Merge(local, anchorsFromEvents(s.EventsByDID(ctx, did)))
}

// InvalidateIdentities drops the cached identity slice after a local write.
func (s *Service) InvalidateIdentities() {
	s.cache.Invalidate(keyIdentities)
}

// InvalidateEvents drops the cached event slice after a local write.
func (s *Service) InvalidateEvents() {
	s.cache.Invalidate(keyEvents)
}

func (s *Service) remoteIdentities(ctx context.Context) []domain.Identity {
	if v, ok := s.cache.Get(keyIdentities); ok {
		s.countHit(keyIdentities)
		return v.([]domain.Identity)
	}
	s.countMiss(keyIdentities)

	sources := []Source[domain.Identity]{
		{Name: "ledger", Fetch: func(ctx context.Context) ([]domain.Identity, bool) {
			v, ok := s.fetchCoalesced(ctx, keyIdentities, func(ctx context.Context) (any, error) {
				return s.remote.Identities(ctx)
			})
			if !ok {
				return nil, false
			}
			return v.([]domain.Identity), true
		}},
		{Name: "stale-cache", Fetch: func(context.Context) ([]domain.Identity, bool) {
			v, ok := s.cache.GetStale(keyIdentities)
			if !ok {
				return nil, false
			}
			return v.([]domain.Identity), true
		}},
	}
	data, src := firstAvailable(ctx, s.logger, sources)
	s.countFallback(keyIdentities, src)
	return data
}

func (s *Service) remoteEvents(ctx context.Context) []domain.DIDEvent {
	if v, ok := s.cache.Get(keyEvents); ok {
		s.countHit(keyEvents)
		return v.([]domain.DIDEvent)
	}
	s.countMiss(keyEvents)

	sources := []Source[domain.DIDEvent]{
		{Name: "ledger", Fetch: func(ctx context.Context) ([]domain.DIDEvent, bool) {
			v, ok := s.fetchCoalesced(ctx, keyEvents, func(ctx context.Context) (any, error) {
				return s.remote.Events(ctx, "")
			})
			if !ok {
				return nil, false
			}
			return v.([]domain.DIDEvent), true
		}},
		{Name: "stale-cache", Fetch: func(context.Context) ([]domain.DIDEvent, bool) {
			v, ok := s.cache.GetStale(keyEvents)
			if !ok {
				return nil, false
			}
			return v.([]domain.DIDEvent), true
		}},
	}
	data, src := firstAvailable(ctx, s.logger, sources)
	s.countFallback(keyEvents, src)
	return data
}

// fetchCoalesced issues at most one outbound fetch per key at a time;
// concurrent callers share the in-flight result. Successful fetches land in
// the cache before anyone observes them.
func (s *Service) fetchCoalesced(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, bool) {
	v, err, shared := s.group.Do(key, func() (any, error) {
		if s.health != nil && !s.health.IsAvailable(ctx) {
			return nil, sentinel.ErrUnavailable
		}
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Put(key, data)
		return data, nil
	})
	if shared {
		s.countCoalesced(key)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.FetchFailures.WithLabelValues(key).Inc()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "remote fetch failed, falling back", "query", key, "error", err)
		}
		return nil, false
	}
	return v, true
}

func anchorsFromEvents(events []domain.DIDEvent) []domain.AnchoringEvent {
	var out []domain.AnchoringEvent
	for _, ev := range events {
		if ev.Proof == nil || !ev.Proof.Anchored() {
			continue
		}
		out = append(out, domain.AnchoringEvent{
			IdentityDID:     ev.IdentityDID,
			TransactionHash: ev.Proof.TransactionHash,
			BlockNumber:     ev.Proof.BlockNumber,
			MerkleRoot:      ev.Proof.MerkleRoot,
			Type:            anchorType(ev.Type),
			Timestamp:       ev.Timestamp,
		})
	}
	return out
}

func anchorType(t domain.EventType) domain.AnchorType {
	switch t {
	case domain.EventCreate:
		return domain.AnchorCreation
	case domain.EventDeactivate:
		return domain.AnchorTransfer
	default:
		return domain.AnchorVerification
	}
}

func (s *Service) countHit(key string) {
	if s.metrics != nil {
		s.metrics.CacheHits.WithLabelValues(key).Inc()
	}
}

func (s *Service) countMiss(key string) {
	if s.metrics != nil {
		s.metrics.CacheMisses.WithLabelValues(key).Inc()
	}
}

func (s *Service) countCoalesced(key string) {
	if s.metrics != nil {
		s.metrics.Coalesced.WithLabelValues(key).Inc()
	}
}

func (s *Service) countFallback(key, src string) {
	if s.metrics != nil && src != "" && src != "ledger" {
		s.metrics.Fallbacks.WithLabelValues(key, src).Inc()
	}
}
