// Package router maps analyzed proof obligations to a ranked list of
// candidate provers and runs them with fallback. Candidates run
// sequentially by default; race mode runs a bounded prefix in parallel
// and takes the first conclusive answer. Every attempt, including the
// failed ones, lands in the final result.
package router

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"noesis/internal/analysis"
	"noesis/internal/bridge"
	"noesis/internal/cache"
	"noesis/internal/kb"
	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/prover"
)

// routeMethod tags router-level results and cache keys. Individual
// attempts keep the method of the prover that produced them.
const routeMethod = "route"

// Complexity thresholds for the ranking policy. Scores come from
// analysis.Features.ComplexityScore, a 0..100 estimate.
const (
	lowComplexity  = 30
	highComplexity = 60
	heavyNesting   = 3
)

// Config is the routing policy in force for one Router.
type Config struct {
	// Prover bounds the native engine per candidate run.
	Prover prover.Config
	// BridgeTimeout bounds each external bridge invocation.
	BridgeTimeout time.Duration
	// RaceWidth > 1 races that many top-ranked candidates in
	// parallel; 0 or 1 keeps execution sequential.
	RaceWidth int
	// ConfigFP is the configuration fingerprint folded into cache
	// keys, so results computed under different bounds never collide.
	ConfigFP string
}

// Stats is a point-in-time snapshot of router counters.
type Stats struct {
	RouteCount int64
	CacheHits  int64
	RaceWins   int64
}

// Router orchestrates the native prover and the bridge adapters behind
// one Route call. It is safe for concurrent use.
type Router struct {
	native  *prover.Prover
	bridges []bridge.Bridge
	pool    *bridge.Pool
	cache   *cache.Cache
	cfg     Config
	logger  *zap.Logger

	routeCount atomic.Int64
	cacheHits  atomic.Int64
	raceWins   atomic.Int64
}

// New creates a router. The cache may be nil, in which case every route
// computes. The pool bounds concurrent bridge invocations; nil gets the
// default size.
func New(native *prover.Prover, bridges []bridge.Bridge, pool *bridge.Pool, c *cache.Cache, cfg Config, logger *zap.Logger) *Router {
	if pool == nil {
		pool = bridge.NewPool(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BridgeTimeout <= 0 {
		cfg.BridgeTimeout = 10 * time.Second
	}
	return &Router{
		native:  native,
		bridges: bridges,
		pool:    pool,
		cache:   c,
		cfg:     cfg,
		logger:  logger,
	}
}

// Stats returns the router counters.
func (r *Router) Stats() Stats {
	return Stats{
		RouteCount: r.routeCount.Load(),
		CacheHits:  r.cacheHits.Load(),
		RaceWins:   r.raceWins.Load(),
	}
}

// Route proves goal against the snapshot using the full ranking policy.
// A cache hit returns immediately with no new attempts.
func (r *Router) Route(ctx context.Context, snap *kb.Snapshot, goal logic.FormulaID) proof.Result {
	return r.route(ctx, snap, goal, "")
}

// RouteMethod restricts the route to candidates with the given method
// tag ("native", "smt", "cec", ...). The cache key carries the method,
// so a forced route never serves a hit computed by a different prover.
func (r *Router) RouteMethod(ctx context.Context, snap *kb.Snapshot, goal logic.FormulaID, method string) proof.Result {
	return r.route(ctx, snap, goal, method)
}

func (r *Router) route(ctx context.Context, snap *kb.Snapshot, goal logic.FormulaID, only string) proof.Result {
	r.routeCount.Add(1)
	start := time.Now()
	a := snap.Arena()

	key := cache.Key{
		Goal:     a.Hash(goal),
		Axioms:   snap.Hash(),
		Method:   routeMethod,
		ConfigFP: r.cfg.ConfigFP,
	}
	if only != "" {
		key.Method = only
	}

	compute := func(ctx context.Context) (proof.Result, error) {
		return r.compute(ctx, snap, goal, only, start), nil
	}
	if r.cache == nil {
		res, _ := compute(ctx)
		return res
	}
	res, hit, err := r.cache.GetOrCompute(ctx, key, compute)
	if err != nil {
		return proof.ErrorResult(routeMethod, err.Error(), time.Since(start))
	}
	if hit {
		r.cacheHits.Add(1)
		r.logger.Debug("route served from cache",
			zap.String("goal", key.Goal.Short()),
			zap.String("status", string(res.Status)))
		res.Attempts = nil
		res.ElapsedMS = time.Since(start).Milliseconds()
	}
	return res
}

func (r *Router) compute(ctx context.Context, snap *kb.Snapshot, goal logic.FormulaID, only string, start time.Time) proof.Result {
	a := snap.Arena()
	ft := analysis.AnalyzeAll(a, goal, snap.Formulas())
	cands := r.rank(snap, goal, ft, only)
	r.logger.Debug("route candidates ranked",
		zap.String("type", string(ft.Type)),
		zap.Int("complexity", ft.ComplexityScore),
		zap.Strings("candidates", names(cands)))
	if len(cands) == 0 {
		return proof.ErrorResult(routeMethod, "no candidate prover supports the formula", time.Since(start))
	}

	var attempts []proof.Attempt
	width := r.cfg.RaceWidth
	if width > len(cands) {
		width = len(cands)
	}
	if width > 1 {
		if res, ok := r.race(ctx, cands[:width], &attempts); ok {
			r.raceWins.Add(1)
			return finish(res, attempts, start)
		}
		cands = cands[width:]
	}
	if res, ok := r.sequential(ctx, cands, &attempts); ok {
		return finish(res, attempts, start)
	}
	return finish(inconclusive(attempts), attempts, start)
}

// sequential runs candidates in rank order. Unknown and Timeout fall
// through to the next candidate; Error is logged and also falls
// through.
func (r *Router) sequential(ctx context.Context, cands []candidate, attempts *[]proof.Attempt) (proof.Result, bool) {
	for _, c := range cands {
		began := time.Now()
		res := c.run(ctx)
		*attempts = append(*attempts, record(c, res, time.Since(began)))
		if res.Status.Conclusive() {
			return res, true
		}
		r.logger.Debug("candidate fell through",
			zap.String("candidate", c.name),
			zap.String("status", string(res.Status)),
			zap.String("message", res.Message))
	}
	return proof.Result{}, false
}

// race runs the candidates in parallel and cancels the rest once one
// returns a conclusive result. Loser attempts are still collected; a
// cancelled loser typically reports Timeout or Error.
func (r *Router) race(ctx context.Context, cands []candidate, attempts *[]proof.Attempt) (proof.Result, bool) {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type raced struct {
		cand    candidate
		res     proof.Result
		elapsed time.Duration
	}
	out := make(chan raced, len(cands))
	g, rctx := errgroup.WithContext(rctx)
	for _, c := range cands {
		g.Go(func() error {
			began := time.Now()
			out <- raced{cand: c, res: c.run(rctx), elapsed: time.Since(began)}
			return nil
		})
	}

	var winner proof.Result
	won := false
	for range cands {
		rc := <-out
		*attempts = append(*attempts, record(rc.cand, rc.res, rc.elapsed))
		if !won && rc.res.Status.Conclusive() {
			winner, won = rc.res, true
			cancel()
			r.logger.Debug("race won",
				zap.String("candidate", rc.cand.name),
				zap.String("status", string(rc.res.Status)))
		}
	}
	_ = g.Wait()
	return winner, won
}

// candidate is one runnable prover in rank order.
type candidate struct {
	name   string
	method string
	run    func(ctx context.Context) proof.Result
}

// rank builds the candidate list for ft. The method order encodes the
// routing policy; each method expands to the registered provers that
// support every feature present in ft.
func (r *Router) rank(snap *kb.Snapshot, goal logic.FormulaID, ft analysis.Features, only string) []candidate {
	seen := make(map[string]bool)
	var order []string
	add := func(m string) {
		if !seen[m] {
			seen[m] = true
			order = append(order, m)
		}
	}

	if ft.HasCognitive || ft.HasDeontic {
		add("cec")
	}
	if r.hornGoal(snap.Arena(), goal, ft) {
		add("datalog")
	}
	if !ft.HasModal && !ft.HasTemporal && !ft.HasArithmetic && ft.ComplexityScore < highComplexity {
		add(prover.Method)
	}
	if ft.HasArithmetic || (ft.Type == analysis.TypeFOL && ft.ComplexityScore >= lowComplexity) {
		add("smt")
	}
	if (ft.HasModal || ft.HasTemporal || ft.HasDeontic) && !ft.HasArithmetic {
		add("tableaux")
	}
	if ft.ComplexityScore >= highComplexity || ft.ModalNesting >= heavyNesting {
		add("interactive")
	}
	add(prover.Method)
	add("neural")

	var cands []candidate
	for _, m := range order {
		if only != "" && m != only {
			continue
		}
		if m == prover.Method {
			if r.native != nil {
				cands = append(cands, r.nativeCandidate(snap, goal))
			}
			continue
		}
		for _, b := range r.bridges {
			if b.Method() != m || !b.Capabilities().Supports(ft) {
				continue
			}
			cands = append(cands, r.bridgeCandidate(b, snap, goal))
		}
	}
	return cands
}

// hornGoal reports whether the datalog adapter is worth ranking: a
// ground atomic goal with no feature the closed-world engine cannot
// model. The adapter's own translation still rejects non-Horn axioms.
func (r *Router) hornGoal(a *logic.Arena, goal logic.FormulaID, ft analysis.Features) bool {
	if ft.HasModal || ft.HasTemporal || ft.HasDeontic || ft.HasCognitive || ft.HasArithmetic {
		return false
	}
	if a.Formula(goal).Kind != logic.KindAtom {
		return false
	}
	return !analysis.Analyze(a, goal).HasNonGroundAtom
}

func (r *Router) nativeCandidate(snap *kb.Snapshot, goal logic.FormulaID) candidate {
	return candidate{
		name:   prover.Method,
		method: prover.Method,
		run: func(ctx context.Context) proof.Result {
			return r.native.Prove(ctx, snap, goal, r.cfg.Prover)
		},
	}
}

// bridgeCandidate wraps a bridge invocation with pool admission, so
// blocking external calls never exceed the configured concurrency.
func (r *Router) bridgeCandidate(b bridge.Bridge, snap *kb.Snapshot, goal logic.FormulaID) candidate {
	return candidate{
		name:   b.Name(),
		method: b.Method(),
		run: func(ctx context.Context) proof.Result {
			began := time.Now()
			if err := r.pool.Acquire(ctx); err != nil {
				return proof.ErrorResult(b.Method(), err.Error(), time.Since(began))
			}
			defer r.pool.Release()
			return bridge.Prove(ctx, b, snap.Arena(), goal, snap.Formulas(), r.cfg.BridgeTimeout)
		},
	}
}

func record(c candidate, res proof.Result, elapsed time.Duration) proof.Attempt {
	msg := ""
	if res.Status == proof.StatusError {
		msg = res.Message
	}
	return proof.NewAttempt(c.method, res.Status, elapsed, msg)
}

// inconclusive folds the fallthrough attempts into the terminal result.
// All-error routes surface Error; a route where at least one prover ran
// to its bound stays Unknown or Timeout.
func inconclusive(attempts []proof.Attempt) proof.Result {
	allErrors := true
	allTimeouts := true
	for _, at := range attempts {
		if at.Status != proof.StatusError {
			allErrors = false
		}
		if at.Status != proof.StatusTimeout {
			allTimeouts = false
		}
	}
	switch {
	case len(attempts) == 0 || allErrors:
		return proof.Result{Status: proof.StatusError, Method: routeMethod, Message: "every candidate prover failed"}
	case allTimeouts:
		return proof.Result{Status: proof.StatusTimeout, Method: routeMethod, Message: "every candidate prover timed out"}
	default:
		return proof.Result{Status: proof.StatusUnknown, Method: routeMethod, Message: "no candidate prover settled the goal"}
	}
}

func finish(res proof.Result, attempts []proof.Attempt, start time.Time) proof.Result {
	res.Attempts = attempts
	res.ElapsedMS = time.Since(start).Milliseconds()
	return res
}

func names(cands []candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}
