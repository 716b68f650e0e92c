package cache

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"noesis/internal/logic"
	"noesis/internal/proof"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testKey(goal, axioms string) Key {
	return Key{
		Goal:     logic.HashBytes([]byte(goal)),
		Axioms:   logic.HashBytes([]byte(axioms)),
		Method:   "native",
		ConfigFP: "fp1",
	}
}

func proved() proof.Result {
	return proof.Result{
		Status: proof.StatusProved,
		Method: "native",
		Steps:  []proof.Step{{RuleName: "modus_ponens", Conclusion: "q(a)"}},
	}
}

func TestCachePutGet(t *testing.T) {
	c, err := New(8, nil, nil)
	require.NoError(t, err)

	k := testKey("q(a)", "axioms")
	_, ok := c.Get(k)
	assert.False(t, ok)

	c.Put(k, proved())
	res, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, proof.StatusProved, res.Status)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCacheKeyDiscriminates(t *testing.T) {
	c, err := New(8, nil, nil)
	require.NoError(t, err)
	c.Put(testKey("q(a)", "ax1"), proved())

	t.Run("different axioms miss", func(t *testing.T) {
		_, ok := c.Get(testKey("q(a)", "ax2"))
		assert.False(t, ok)
	})
	t.Run("different method misses", func(t *testing.T) {
		k := testKey("q(a)", "ax1")
		k.Method = "smt"
		_, ok := c.Get(k)
		assert.False(t, ok)
	})
	t.Run("different config misses", func(t *testing.T) {
		k := testKey("q(a)", "ax1")
		k.ConfigFP = "fp2"
		_, ok := c.Get(k)
		assert.False(t, ok)
	})
}

func TestCacheLRUEviction(t *testing.T) {
	c, err := New(2, nil, nil)
	require.NoError(t, err)

	k1 := testKey("g1", "ax")
	k2 := testKey("g2", "ax")
	k3 := testKey("g3", "ax")

	c.Put(k1, proved())
	c.Put(k2, proved())
	_, ok := c.Get(k1) // refresh k1, making k2 the cold entry
	require.True(t, ok)
	c.Put(k3, proved())

	_, ok = c.Get(k2)
	assert.False(t, ok, "cold entry should have been evicted")
	_, ok = c.Get(k1)
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCacheHitReturnsCopy(t *testing.T) {
	c, err := New(8, nil, nil)
	require.NoError(t, err)
	k := testKey("q(a)", "ax")
	c.Put(k, proved())

	first, ok := c.Get(k)
	require.True(t, ok)
	first.Steps[0].RuleName = "tampered"

	second, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, "modus_ponens", second.Steps[0].RuleName)
}

func TestGetOrComputeExactlyOnce(t *testing.T) {
	c, err := New(8, nil, nil)
	require.NoError(t, err)
	k := testKey("q(a)", "ax")

	var computed atomic.Int64
	release := make(chan struct{})
	compute := func(ctx context.Context) (proof.Result, error) {
		computed.Add(1)
		<-release
		return proved(), nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]proof.Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, _, err := c.GetOrCompute(context.Background(), k, compute)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, computed.Load(), int64(2),
		"concurrent callers must share the in-flight computation")
	for _, res := range results {
		assert.Equal(t, proof.StatusProved, res.Status)
	}

	// A later call is a plain hit.
	_, hit, err := c.GetOrCompute(context.Background(), k, compute)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGetOrComputeSkipsInconclusive(t *testing.T) {
	c, err := New(8, nil, nil)
	require.NoError(t, err)
	k := testKey("q(a)", "ax")

	res, hit, err := c.GetOrCompute(context.Background(), k, func(ctx context.Context) (proof.Result, error) {
		return proof.Result{Status: proof.StatusUnknown, Method: "native"}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, proof.StatusUnknown, res.Status)
	assert.Equal(t, 0, c.Len(), "inconclusive results must not be cached")
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	st, err := OpenStore(path)
	require.NoError(t, err)
	k := testKey("q(a)", "ax")
	require.NoError(t, st.Save(k, proved()))
	require.NoError(t, st.Save(k, proved())) // upsert, not duplicate
	n, err := st.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, st.Close())

	st, err = OpenStore(path)
	require.NoError(t, err)
	defer st.Close()

	c, err := New(8, st, nil)
	require.NoError(t, err)
	res, ok := c.Get(k)
	require.True(t, ok, "warm load should restore persisted entries")
	assert.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, "modus_ponens", res.Steps[0].RuleName)
}

func TestFlushClearsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	st, err := OpenStore(path)
	require.NoError(t, err)
	defer st.Close()

	c, err := New(8, st, nil)
	require.NoError(t, err)
	c.Put(testKey("q(a)", "ax"), proved())
	require.NoError(t, c.Flush())

	assert.Equal(t, 0, c.Len())
	n, err := st.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
