package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"provenant/pkg/sentinel"
)

// Protocol files are fetched straight from storage, bypassing the database,
// so the verifier's evidence is independent of what the API layer claims.

// LogEntry is one line of an identity's did.jsonl hash-chained log. Raw keeps
// the exact bytes of the line: the chain links via a hash over the previous
// line as stored, not over a re-serialized form.
type LogEntry struct {
	VersionID    string         `json:"versionId"`
	VersionTime  time.Time      `json:"versionTime"`
	PreviousHash string         `json:"previousHash"`
	Parameters   map[string]any `json:"parameters"`
	State        map[string]any `json:"state"`

	Raw []byte `json:"-"`
}

// AnchoringProof is one entry of a did-witness.json proof list.
type AnchoringProof struct {
	WitnessDID      string    `json:"witnessDid"`
	Signature       string    `json:"signature"`
	MerkleRoot      string    `json:"merkleRoot"`
	TransactionHash string    `json:"transactionHash"`
	BlockNumber     int64     `json:"blockNumber"`
	Timestamp       time.Time `json:"timestamp"`
}

// WitnessDocument is the witness-proof bundle stored next to the log.
type WitnessDocument struct {
	AnchoringProofs []AnchoringProof `json:"anchoringProofs"`
}

// DIDLog fetches and parses the raw append-only log for a SCID. Blank lines
// are skipped; a malformed line aborts parsing since a log that cannot be
// parsed cannot be verified either.
func (c *Client) DIDLog(ctx context.Context, scid string) ([]LogEntry, error) {
	resp, err := c.getRaw(ctx, "/.well-known/did/"+scid+"/did.jsonl")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("parse log entry %d: %w", len(entries), err)
		}
		entry.Raw = append([]byte(nil), line...)
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read did log: %v", sentinel.ErrUnavailable, err)
	}
	return entries, nil
}

// WitnessProofs fetches the witness-proof document for a SCID. A missing
// document returns sentinel.ErrNotFound, which callers treat as the normal
// "not yet anchored" state.
func (c *Client) WitnessProofs(ctx context.Context, scid string) (*WitnessDocument, error) {
	resp, err := c.getRaw(ctx, "/.well-known/did/"+scid+"/did-witness.json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc WitnessDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode witness document: %w", err)
	}
	return &doc, nil
}

func (c *Client) getRaw(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, sentinel.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s status %d", sentinel.ErrUnavailable, path, resp.StatusCode)
	}
	return resp, nil
}
