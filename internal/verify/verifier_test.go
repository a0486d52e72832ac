package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenant/internal/ledger"
	"provenant/pkg/sentinel"
)

type fakeFiles struct {
	entries    []ledger.LogEntry
	logErr     error
	doc        *ledger.WitnessDocument
	witnessErr error
}

func (f *fakeFiles) DIDLog(context.Context, string) ([]ledger.LogEntry, error) {
	return f.entries, f.logErr
}

func (f *fakeFiles) WitnessProofs(context.Context, string) (*ledger.WitnessDocument, error) {
	return f.doc, f.witnessErr
}

// chain builds a well-linked log of n entries the way the ledger serves it:
// each entry declares the hash of the previous entry's stored bytes.
func chain(t *testing.T, n int) []ledger.LogEntry {
	t.Helper()
	entries := make([]ledger.LogEntry, 0, n)
	prevHash := ""
	for i := 0; i < n; i++ {
		raw, err := json.Marshal(map[string]string{
			"versionId":    fmt.Sprintf("%d-v", i+1),
			"previousHash": prevHash,
		})
		require.NoError(t, err)
		var entry ledger.LogEntry
		require.NoError(t, json.Unmarshal(raw, &entry))
		entry.Raw = raw
		entries = append(entries, entry)
		prevHash = EntryHash(entry)
	}
	return entries
}

const testDID = "did:webvh:scid1:factory.example.com"

func TestVerify_IntactChainIsValid(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("length %d", n), func(t *testing.T) {
			v := New(&fakeFiles{entries: chain(t, n), witnessErr: sentinel.ErrNotFound})
			result := v.Verify(context.Background(), testDID)
			assert.True(t, result.HashChainValid)
			assert.Equal(t, n, result.ChainLength)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestVerify_AnyMutatedEntryBreaksChain(t *testing.T) {
	const n = 4
	for k := 0; k < n-1; k++ {
		t.Run(fmt.Sprintf("mutate entry %d", k), func(t *testing.T) {
			entries := chain(t, n)
			// Flip one byte of entry k's stored bytes.
			mutated := append([]byte(nil), entries[k].Raw...)
			mutated[len(mutated)/2] ^= 0x01
			entries[k].Raw = mutated

			v := New(&fakeFiles{entries: entries, witnessErr: sentinel.ErrNotFound})
			result := v.Verify(context.Background(), testDID)
			assert.False(t, result.HashChainValid)
			assert.Contains(t, result.Errors, "hash chain discontinuity")
		})
	}
}

func TestVerify_EmptyLogIsNotValid(t *testing.T) {
	v := New(&fakeFiles{witnessErr: sentinel.ErrNotFound})
	result := v.Verify(context.Background(), testDID)
	assert.False(t, result.HashChainValid)
	assert.Zero(t, result.ChainLength)
}

func TestVerify_WitnessProofsCounted(t *testing.T) {
	v := New(&fakeFiles{
		entries: chain(t, 2),
		doc: &ledger.WitnessDocument{AnchoringProofs: []ledger.AnchoringProof{
			{WitnessDID: "did:example:wit1", TransactionHash: "0xabc"},
			{WitnessDID: "did:example:wit2", TransactionHash: "0xdef"},
		}},
	})
	result := v.Verify(context.Background(), testDID)
	assert.True(t, result.WitnessValid)
	assert.Equal(t, 2, result.WitnessCount)
}

func TestVerify_MissingWitnessDocIsNotAnError(t *testing.T) {
	v := New(&fakeFiles{entries: chain(t, 2), witnessErr: sentinel.ErrNotFound})
	result := v.Verify(context.Background(), testDID)
	assert.False(t, result.WitnessValid)
	assert.Zero(t, result.WitnessCount)
	assert.Empty(t, result.Errors, "not-yet-anchored is a normal state")
	assert.True(t, result.HashChainValid)
}

func TestVerify_FetchFailuresArePartialNotFatal(t *testing.T) {
	t.Run("witness fetch failure keeps chain evidence", func(t *testing.T) {
		v := New(&fakeFiles{entries: chain(t, 3), witnessErr: errors.New("connection reset")})
		result := v.Verify(context.Background(), testDID)
		assert.True(t, result.HashChainValid)
		assert.False(t, result.WitnessValid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "witness proofs")
	})

	t.Run("log fetch failure keeps witness evidence", func(t *testing.T) {
		v := New(&fakeFiles{
			logErr: errors.New("connection reset"),
			doc:    &ledger.WitnessDocument{AnchoringProofs: []ledger.AnchoringProof{{WitnessDID: "did:example:wit1"}}},
		})
		result := v.Verify(context.Background(), testDID)
		assert.False(t, result.HashChainValid)
		assert.True(t, result.WitnessValid)
		require.NotEmpty(t, result.Errors)
		assert.Contains(t, result.Errors[0], "did log")
	})
}

func TestVerify_MalformedDID(t *testing.T) {
	v := New(&fakeFiles{})
	result := v.Verify(context.Background(), "not-a-did")
	assert.False(t, result.HashChainValid)
	assert.False(t, result.WitnessValid)
	require.Len(t, result.Errors, 1)
}
