package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"noesis/internal/bridge"
	"noesis/internal/cache"
	"noesis/internal/kb"
	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/prover"
	"noesis/internal/rules"
	"noesis/internal/syntax"
)

func TestMain(m *testing.M) {
	// The genai dependency starts an opencensus stats worker on import
	// that never stops.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeBridge returns a canned result after an optional delay. Invoke
// honors context cancellation so raced losers unwind.
type fakeBridge struct {
	name   string
	method string
	caps   bridge.CapabilitySet
	res    proof.Result
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeBridge) Name() string                      { return f.name }
func (f *fakeBridge) Method() string                    { return f.method }
func (f *fakeBridge) Capabilities() bridge.CapabilitySet { return f.caps }

func (f *fakeBridge) Translate(_ *logic.Arena, _ logic.FormulaID, _ []logic.FormulaID) (string, error) {
	return "obligation", nil
}

func (f *fakeBridge) Invoke(ctx context.Context, _ string, _ time.Duration) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "raw", f.err
}

func (f *fakeBridge) ParseResult(string) proof.Result { return f.res }

func proved(method string) proof.Result {
	return proof.Result{Status: proof.StatusProved, Method: method}
}

func unknown(method string) proof.Result {
	return proof.Result{Status: proof.StatusUnknown, Method: method}
}

func allCaps() bridge.CapabilitySet {
	return bridge.CapabilitySet{
		Propositional: true, FirstOrder: true, Arithmetic: true,
		Modal: true, Temporal: true, Deontic: true, Cognitive: true,
	}
}

func snapshot(t *testing.T, axioms ...string) (*kb.Snapshot, *logic.Arena) {
	t.Helper()
	a := logic.NewArena()
	ids := make([]logic.FormulaID, len(axioms))
	for i, src := range axioms {
		f, err := syntax.ParseNative(a, src)
		require.NoError(t, err, src)
		ids[i] = f
	}
	return kb.NewSnapshot(a, ids...), a
}

func parseGoal(t *testing.T, a *logic.Arena, src string) logic.FormulaID {
	t.Helper()
	f, err := syntax.ParseNative(a, src)
	require.NoError(t, err, src)
	return f
}

func newRouter(bridges []bridge.Bridge, c *cache.Cache, cfg Config) *Router {
	if cfg.Prover.Timeout == 0 {
		cfg.Prover = prover.DefaultConfig()
	}
	return New(prover.New(rules.NewRegistry(), nil), bridges, bridge.NewPool(4), c, cfg, nil)
}

// bridgeOnlyRouter has no native engine, so the fakes are the whole
// candidate list.
func bridgeOnlyRouter(bridges []bridge.Bridge, cfg Config) *Router {
	return New(nil, bridges, bridge.NewPool(4), nil, cfg, nil)
}

func TestRouteNativeProves(t *testing.T) {
	snap, a := snapshot(t, "p(a)", "(p(a) -> q(a))")
	r := newRouter(nil, nil, Config{})

	res := r.Route(context.Background(), snap, parseGoal(t, a, "q(a)"))

	require.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, prover.Method, res.Method)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, prover.Method, res.Attempts[0].Method)
	assert.Equal(t, proof.StatusProved, res.Attempts[0].Status)
	assert.NotEmpty(t, res.Attempts[0].ID)
	assert.Equal(t, int64(1), r.Stats().RouteCount)
}

func TestRouteArithmeticPrefersSMT(t *testing.T) {
	snap, a := snapshot(t)
	smt := &fakeBridge{name: "smt-z3", method: "smt", caps: allCaps(), res: proved("smt")}
	r := newRouter([]bridge.Bridge{smt}, nil, Config{})

	res := r.Route(context.Background(), snap, parseGoal(t, a, "forall x. (x + 1 > x)"))

	require.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, "smt", res.Method)
	assert.Equal(t, int32(1), smt.calls.Load())
}

func TestRouteTemporalPrefersTableaux(t *testing.T) {
	snap, a := snapshot(t)
	tab := &fakeBridge{name: "tableaux", method: "tableaux", caps: allCaps(), res: proved("tableaux")}
	neural := &fakeBridge{name: "neural", method: "neural", caps: allCaps(), res: proved("neural")}
	r := newRouter([]bridge.Bridge{neural, tab}, nil, Config{})

	res := r.Route(context.Background(), snap, parseGoal(t, a, "Always(Eventually(p(x)))"))

	require.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, "tableaux", res.Method)
	assert.Equal(t, int32(0), neural.calls.Load())
}

func TestRouteFallbackOnUnknown(t *testing.T) {
	snap, a := snapshot(t)
	tab := &fakeBridge{name: "tableaux", method: "tableaux", caps: allCaps(), res: unknown("tableaux")}
	neural := &fakeBridge{name: "neural", method: "neural", caps: allCaps(), res: proved("neural")}
	r := bridgeOnlyRouter([]bridge.Bridge{tab, neural}, Config{})

	res := r.Route(context.Background(), snap, parseGoal(t, a, "Nec(p)"))

	require.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, "neural", res.Method)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, proof.StatusUnknown, res.Attempts[0].Status)
	assert.Equal(t, proof.StatusProved, res.Attempts[1].Status)
}

func TestRouteErrorFallsThrough(t *testing.T) {
	snap, a := snapshot(t)
	broken := &fakeBridge{name: "tableaux", method: "tableaux", caps: allCaps(), err: errors.New("binary missing")}
	neural := &fakeBridge{name: "neural", method: "neural", caps: allCaps(), res: proved("neural")}
	r := bridgeOnlyRouter([]bridge.Bridge{broken, neural}, Config{})

	res := r.Route(context.Background(), snap, parseGoal(t, a, "Nec(p)"))

	require.Equal(t, proof.StatusProved, res.Status)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, proof.StatusError, res.Attempts[0].Status)
	assert.Contains(t, res.Attempts[0].Error, "binary missing")
}

func TestRouteAllErrorsIsTerminalError(t *testing.T) {
	snap, a := snapshot(t)
	tab := &fakeBridge{name: "tableaux", method: "tableaux", caps: allCaps(), err: errors.New("down")}
	neural := &fakeBridge{name: "neural", method: "neural", caps: allCaps(), err: errors.New("down")}
	r := bridgeOnlyRouter([]bridge.Bridge{tab, neural}, Config{})

	res := r.Route(context.Background(), snap, parseGoal(t, a, "Nec(p)"))

	require.Equal(t, proof.StatusError, res.Status)
	assert.Len(t, res.Attempts, 2)
}

func TestRouteInconclusiveStaysUnknown(t *testing.T) {
	snap, a := snapshot(t)
	r := newRouter(nil, nil, Config{})

	res := r.Route(context.Background(), snap, parseGoal(t, a, "q(b)"))

	require.Equal(t, proof.StatusUnknown, res.Status)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, prover.Method, res.Attempts[0].Method)
}

func TestRouteCacheHitHasNoAttempts(t *testing.T) {
	snap, a := snapshot(t, "p(a)", "(p(a) -> q(a))")
	c, err := cache.New(16, nil, nil)
	require.NoError(t, err)
	r := newRouter(nil, c, Config{})
	goal := parseGoal(t, a, "q(a)")

	first := r.Route(context.Background(), snap, goal)
	require.Equal(t, proof.StatusProved, first.Status)
	require.NotEmpty(t, first.Attempts)

	second := r.Route(context.Background(), snap, goal)
	require.Equal(t, proof.StatusProved, second.Status)
	assert.Empty(t, second.Attempts)
	assert.LessOrEqual(t, second.ElapsedMS, first.ElapsedMS+1)
	assert.Equal(t, int64(1), r.Stats().CacheHits)
}

func TestRouteMethodRestrictsCandidates(t *testing.T) {
	snap, a := snapshot(t)
	smt := &fakeBridge{name: "smt-z3", method: "smt", caps: allCaps(), res: proved("smt")}
	neural := &fakeBridge{name: "neural", method: "neural", caps: allCaps(), res: proved("neural")}
	r := newRouter([]bridge.Bridge{smt, neural}, nil, Config{})

	res := r.RouteMethod(context.Background(), snap, parseGoal(t, a, "(x + 1 > x)"), "neural")

	require.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, "neural", res.Method)
	assert.Equal(t, int32(0), smt.calls.Load())
}

func TestRouteRaceFirstConclusiveWins(t *testing.T) {
	snap, a := snapshot(t)
	slow := &fakeBridge{name: "tableaux", method: "tableaux", caps: allCaps(), res: proved("tableaux"), delay: 2 * time.Second}
	fast := &fakeBridge{name: "neural", method: "neural", caps: allCaps(), res: proved("neural"), delay: 5 * time.Millisecond}
	r := bridgeOnlyRouter([]bridge.Bridge{slow, fast}, Config{RaceWidth: 2})

	began := time.Now()
	res := r.Route(context.Background(), snap, parseGoal(t, a, "Nec(p)"))

	require.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, "neural", res.Method)
	assert.Less(t, time.Since(began), time.Second, "loser should be cancelled, not awaited")
	assert.Len(t, res.Attempts, 2)
	assert.Equal(t, int64(1), r.Stats().RaceWins)
}

func TestRouteRaceFallsBackSequentially(t *testing.T) {
	snap, a := snapshot(t)
	u1 := &fakeBridge{name: "tableaux", method: "tableaux", caps: allCaps(), res: unknown("tableaux")}
	u2 := &fakeBridge{name: "interactive", method: "interactive", caps: allCaps(), res: unknown("interactive")}
	neural := &fakeBridge{name: "neural", method: "neural", caps: allCaps(), res: proved("neural")}
	r := bridgeOnlyRouter([]bridge.Bridge{u1, u2, neural}, Config{RaceWidth: 2})

	res := r.Route(context.Background(), snap, parseGoal(t, a, "Nec(Nec(Nec(p)))"))

	require.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, "neural", res.Method)
	assert.Equal(t, int64(0), r.Stats().RaceWins)
	assert.GreaterOrEqual(t, len(res.Attempts), 3)
}

// A proved result must stay proved when the search gets more time.
func TestRouteMonotonicUnderLargerTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{time.Second, 10 * time.Second} {
		snap, a := snapshot(t, "p(a)", "(p(a) -> q(a))")
		cfg := Config{Prover: prover.DefaultConfig()}
		cfg.Prover.Timeout = timeout
		r := newRouter(nil, nil, cfg)

		res := r.Route(context.Background(), snap, parseGoal(t, a, "q(a)"))
		require.Equal(t, proof.StatusProved, res.Status, "timeout %v", timeout)
	}
}

func TestRouteConfigFPSeparatesCacheEntries(t *testing.T) {
	snap, a := snapshot(t, "p(a)")
	c, err := cache.New(16, nil, nil)
	require.NoError(t, err)
	goal := parseGoal(t, a, "p(a)")

	r1 := newRouter(nil, c, Config{ConfigFP: "depth=12"})
	r2 := newRouter(nil, c, Config{ConfigFP: "depth=24"})

	first := r1.Route(context.Background(), snap, goal)
	require.Equal(t, proof.StatusProved, first.Status)

	second := r2.Route(context.Background(), snap, goal)
	require.Equal(t, proof.StatusProved, second.Status)
	assert.NotEmpty(t, second.Attempts, "different fingerprint must not share an entry")
}
