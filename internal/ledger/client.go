package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"provenant/internal/domain"
	"provenant/pkg/sentinel"
)

// Client talks to the remote identity ledger service. All reads go through
// it: the bulk queries used by the dashboard and the raw protocol files used
// by the verifier.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New constructs a ledger client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health probes the service's reachability endpoint. Any non-2xx status or
// transport error counts as unavailable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: health status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Identities fetches the full identity list and harmonizes the remote shape
// into the local one.
func (c *Client) Identities(ctx context.Context) ([]domain.Identity, error) {
	var raw []remoteIdentity
	if err := c.getJSON(ctx, "/identities", &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Identity, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.normalize())
	}
	return out, nil
}

// Events fetches ledger events, optionally filtered by DID, harmonized into
// the local event shape and ordered by version id within each identity.
func (c *Client) Events(ctx context.Context, did string) ([]domain.DIDEvent, error) {
	path := "/events"
	if did != "" {
		path += "?did=" + url.QueryEscape(did)
	}
	var raw []remoteEvent
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.DIDEvent, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.normalize())
	}
	sortEventsByVersion(out)
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return sentinel.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s status %d", sentinel.ErrUnavailable, path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", sentinel.ErrUnavailable, path, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
