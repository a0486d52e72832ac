package ledger

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenant/internal/domain"
	"provenant/pkg/sentinel"
)

func TestClientIdentities_NormalizesRemoteShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/identities", r.URL.Path)
		fmt.Fprint(w, `[
			{"did":"did:webvh:a1:x.example","category":"main","modelName":"Widget","status":"active","version":3},
			{"id":"did:webvh:b2:x.example","type":"component","name":"Gear","owner":"did:webvh:o1:x.example"}
		]`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	identities, err := c.Identities(context.Background())
	require.NoError(t, err)
	require.Len(t, identities, 2)

	assert.Equal(t, "did:webvh:a1:x.example", identities[0].DID)
	assert.Equal(t, int64(3), identities[0].Version)

	// Older backend field names harmonize into the local shape, with
	// defaults filled in for what the remote omitted.
	assert.Equal(t, "did:webvh:b2:x.example", identities[1].DID)
	assert.Equal(t, domain.CategoryComponent, identities[1].Category)
	assert.Equal(t, "Gear", identities[1].ModelName)
	assert.Equal(t, "did:webvh:o1:x.example", identities[1].OwnerDID)
	assert.Equal(t, domain.StatusActive, identities[1].Status)
	assert.NotNil(t, identities[1].Metadata)
	assert.Equal(t, int64(1), identities[1].Version)
}

func TestClientEvents_OrdersByVersionWithinIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "did:webvh:a1:x.example", r.URL.Query().Get("did"))
		fmt.Fprint(w, `[
			{"did":"did:webvh:a1:x.example","eventType":"update","version":2,"signature":"s2"},
			{"did":"did:webvh:a1:x.example","eventType":"create","version":1,"signature":"s1"}
		]`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	events, err := c.Events(context.Background(), "did:webvh:a1:x.example")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventCreate, events[0].Type)
	assert.Equal(t, int64(1), events[0].VersionID)
	assert.Equal(t, int64(2), events[1].VersionID)
}

func TestClientEvents_WitnessProofNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"identityDid":"did:webvh:a1:x.example","type":"create","versionId":1,
			 "proof":{"batchId":"b-1","merkleRoot":"root","txHash":"0xabc",
			          "witnesses":[{"did":"did:webvh:w1:x.example","proof":"ws-1"}]}}
		]`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	events, err := c.Events(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Proof)
	assert.Equal(t, "0xabc", events[0].Proof.TransactionHash)
	assert.True(t, events[0].Proof.Anchored())
	require.Len(t, events[0].Proof.Witnesses, 1)
	assert.Equal(t, "did:webvh:w1:x.example", events[0].Proof.Witnesses[0].WitnessDID)
	assert.Equal(t, "ws-1", events[0].Proof.Witnesses[0].Signature)
}

func TestClientDIDLog_ParsesLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/.well-known/did/scid1/did.jsonl", r.URL.Path)
		fmt.Fprint(w, `{"versionId":"1-abc","previousHash":""}

{"versionId":"2-def","previousHash":"deadbeef"}
`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	entries, err := c.DIDLog(context.Background(), "scid1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1-abc", entries[0].VersionID)
	assert.Equal(t, "deadbeef", entries[1].PreviousHash)
	assert.Equal(t, []byte(`{"versionId":"1-abc","previousHash":""}`), entries[0].Raw)
}

func TestClientWitnessProofs_NotFoundIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.WitnessProofs(context.Background(), "scid1")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestClientHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	require.NoError(t, New(healthy.URL).Health(context.Background()))

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	err := New(broken.URL).Health(context.Background())
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	// Connection errors count as unavailable too.
	unreachable := New("http://127.0.0.1:1")
	require.ErrorIs(t, unreachable.Health(context.Background()), sentinel.ErrUnavailable)
}
