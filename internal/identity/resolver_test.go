package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	kindStore Kind = "stores"
	kindOrder Kind = "orders"
)

func TestResolver_ResolveReusesKeys(t *testing.T) {
	r := NewResolver()

	k1, created := r.Resolve(kindStore, "store-42")
	assert.True(t, created)
	assert.Equal(t, int64(1), k1)

	k2, created := r.Resolve(kindStore, "store-7")
	assert.True(t, created)
	assert.Equal(t, int64(2), k2)

	again, created := r.Resolve(kindStore, "store-42")
	assert.False(t, created)
	assert.Equal(t, k1, again)
}

func TestResolver_SequencesArePerKind(t *testing.T) {
	r := NewResolver()

	assert.Equal(t, int64(1), r.Mint(kindOrder))
	assert.Equal(t, int64(2), r.Mint(kindOrder))
	key, _ := r.Resolve(kindStore, "s")
	assert.Equal(t, int64(1), key)
	assert.Equal(t, int64(3), r.Mint(kindOrder))
}

func TestResolver_RollbackForgetsBindingsButNotSequence(t *testing.T) {
	r := NewResolver()
	kept, _ := r.Resolve(kindStore, "kept")

	cp := r.Checkpoint()
	discarded, _ := r.Resolve(kindStore, "discarded")
	_, err := r.Observe(kindStore, "discarded", map[string]any{"name": "x"})
	require.NoError(t, err)
	r.Rollback(cp)

	got, created := r.Resolve(kindStore, "kept")
	assert.False(t, created)
	assert.Equal(t, kept, got)
	assert.NotContains(t, r.fingerprints, binding{kind: kindStore, key: "discarded"})

	rebound, created := r.Resolve(kindStore, "discarded")
	assert.True(t, created)
	assert.Greater(t, rebound, discarded, "keys are never reissued")

	conflict, err := r.Observe(kindStore, "discarded", map[string]any{"name": "y"})
	require.NoError(t, err)
	assert.Nil(t, conflict, "fingerprint from the discarded record must be forgotten")
}

func TestResolver_ObserveFlagsConflicts(t *testing.T) {
	r := NewResolver()
	r.Resolve(kindStore, "store-42")

	conflict, err := r.Observe(kindStore, "store-42", map[string]any{"name": "Huel", "domain": "huel.com"})
	require.NoError(t, err)
	assert.Nil(t, conflict)

	// Same attributes in a different key order are not a conflict.
	conflict, err = r.Observe(kindStore, "store-42", map[string]any{"domain": "huel.com", "name": "Huel"})
	require.NoError(t, err)
	assert.Nil(t, conflict)

	conflict, err = r.Observe(kindStore, "store-42", map[string]any{"name": "Huel UK", "domain": "huel.com"})
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, "store-42", conflict.NaturalKey)
	assert.Contains(t, conflict.First, `"name":"Huel"`)
	assert.Contains(t, conflict.Seen, `"name":"Huel UK"`)
	assert.Contains(t, conflict.String(), "store-42")
}

func TestResolver_ConcurrentResolveIsConsistent(t *testing.T) {
	r := NewResolver()
	keys := make([]int64, 50)

	var wg sync.WaitGroup
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i], _ = r.Resolve(kindStore, "shared")
		}(i)
	}
	wg.Wait()

	for _, k := range keys {
		assert.Equal(t, keys[0], k)
	}
	assert.Equal(t, int64(2), r.Mint(kindStore))
}

func TestResolver_RollbackForgetsFirstObservationOfEarlierBinding(t *testing.T) {
	r := NewResolver()
	r.Resolve(kindStore, "PROMO")

	cp := r.Checkpoint()
	_, err := r.Observe(kindStore, "PROMO", map[string]any{"type": "percentage"})
	require.NoError(t, err)
	r.Rollback(cp)

	conflict, err := r.Observe(kindStore, "PROMO", map[string]any{"type": "fixed"})
	require.NoError(t, err)
	assert.Nil(t, conflict, "the discarded observation must not count as first seen")

	conflict, err = r.Observe(kindStore, "PROMO", map[string]any{"type": "percentage"})
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, `{"type":"fixed"}`, conflict.First)
}
