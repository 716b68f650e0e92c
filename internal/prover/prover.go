// Package prover implements the native inference engine: bounded
// forward chaining over the rule library with a resolution-refutation
// fallback for the first-order fragment.
package prover

import (
	"context"
	"time"

	"go.uber.org/zap"

	"noesis/internal/kb"
	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/rules"
)

// Method is the prover method name recorded in results and cache keys.
const Method = "native"

// Config bounds one proof search.
type Config struct {
	// MaxDepth is the forward-chaining iteration bound.
	MaxDepth int
	// Timeout is the wall-clock bound for the whole search, including
	// the resolution fallback.
	Timeout time.Duration
	// MaxFacts caps the derived fact set; exceeding it ends the search
	// as Unknown.
	MaxFacts int
	// Categories restricts and orders the rule categories tried each
	// iteration. Empty means all categories in default order.
	Categories []rules.Category
	// DisableResolution turns off the clausal fallback (used by the
	// CEC delegate, whose fragment is not clausal).
	DisableResolution bool
}

// DefaultConfig returns the standard search bounds.
func DefaultConfig() Config {
	return Config{
		MaxDepth: 12,
		Timeout:  5 * time.Second,
		MaxFacts: 5000,
	}
}

// Prover is the native engine. It is stateless across calls: every
// search works on the immutable KB snapshot passed in, so one Prover
// may serve concurrent goroutines.
type Prover struct {
	registry *rules.Registry
	logger   *zap.Logger
}

// New creates a prover over a rule registry.
func New(registry *rules.Registry, logger *zap.Logger) *Prover {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prover{registry: registry, logger: logger}
}

// Registry returns the prover's rule registry.
func (p *Prover) Registry() *rules.Registry { return p.registry }

// Prove runs forward chaining from the snapshot toward the goal, then
// falls back to resolution refutation when chaining exhausts on a
// first-order problem. The context deadline and cfg.Timeout both bound
// the search; whichever is earlier wins.
func (p *Prover) Prove(ctx context.Context, snap *kb.Snapshot, goal logic.FormulaID, cfg Config) proof.Result {
	start := time.Now()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultConfig().MaxDepth
	}
	if cfg.MaxFacts <= 0 {
		cfg.MaxFacts = DefaultConfig().MaxFacts
	}
	deadline := start.Add(cfg.Timeout)
	if cfg.Timeout <= 0 {
		deadline = start.Add(DefaultConfig().Timeout)
	}
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s := newSearch(p.registry, snap, goal, cfg, deadline)
	res := s.run(ctx)
	if res.Status == proof.StatusUnknown && !cfg.DisableResolution {
		if r, ok := p.resolve(ctx, snap, goal, deadline); ok {
			r.ElapsedMS = time.Since(start).Milliseconds()
			return r
		}
	}
	res.ElapsedMS = time.Since(start).Milliseconds()
	p.logger.Debug("native search finished",
		zap.String("status", string(res.Status)),
		zap.Int("steps", len(res.Steps)),
		zap.Duration("elapsed", time.Since(start)))
	return res
}
