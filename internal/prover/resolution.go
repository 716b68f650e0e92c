package prover

import (
	"context"
	"fmt"
	"time"

	"noesis/internal/kb"
	"noesis/internal/logic"
	"noesis/internal/proof"
)

// =============================================================================
// RESOLUTION REFUTATION
// =============================================================================

// maxClauseWidth drops resolvents with too many literals; long clauses
// rarely contribute to a refutation and bloat the saturation.
const maxClauseWidth = 16

// resolve attempts resolution refutation in both directions: first the
// axioms plus the negated goal (a refutation proves the goal), then the
// axioms plus the goal itself (a refutation disproves it). The second
// return is false when the fallback does not apply (formula outside the
// first-order fragment, clausification overflow) or when both
// saturations end without a verdict; the caller then keeps the
// chaining result.
func (p *Prover) resolve(ctx context.Context, snap *kb.Snapshot, goal logic.FormulaID, deadline time.Time) (proof.Result, bool) {
	a := snap.Arena()
	if !folFragment(a, goal) {
		return proof.Result{}, false
	}
	for _, f := range snap.Formulas() {
		if !folFragment(a, f) {
			return proof.Result{}, false
		}
	}

	switch out, n := p.saturate(ctx, snap, goal, true, deadline); out {
	case satRefuted:
		return proof.Result{Status: proof.StatusProved, Method: Method,
			Message: fmt.Sprintf("resolution refutation, %d resolvents", n)}, true
	case satTimeout:
		return proof.Result{Status: proof.StatusTimeout, Method: Method,
			Message: "resolution interrupted by deadline"}, true
	}

	switch out, n := p.saturate(ctx, snap, goal, false, deadline); out {
	case satRefuted:
		return proof.Result{Status: proof.StatusDisproved, Method: Method,
			Message: fmt.Sprintf("goal refuted by resolution, %d resolvents", n)}, true
	case satTimeout:
		return proof.Result{Status: proof.StatusTimeout, Method: Method,
			Message: "resolution interrupted by deadline"}, true
	}
	return proof.Result{}, false
}

type satOutcome int

const (
	satOpen satOutcome = iota
	satRefuted
	satOverflow
	satTimeout
)

// saturate clausifies the axioms plus the goal (negated or not) and
// saturates under binary resolution, returning the outcome and the
// number of resolvents generated.
func (p *Prover) saturate(ctx context.Context, snap *kb.Snapshot, goal logic.FormulaID, negateGoal bool, deadline time.Time) (satOutcome, int) {
	a := snap.Arena()
	c := &clausifier{arena: a, maxClauses: defaultClauseCap}
	var initial []clause
	for _, f := range snap.Formulas() {
		initial = append(initial, c.clausify(f, false)...)
	}
	initial = append(initial, c.clausify(goal, negateGoal)...)
	if c.overflow {
		return satOverflow, 0
	}

	seen := make(map[string]bool)
	var worklist, processed []clause
	admit := func(cl clause) (empty bool) {
		norm, ok := c.normalized(cl)
		if !ok || len(norm) > maxClauseWidth {
			return false
		}
		if len(norm) == 0 {
			return true
		}
		key := clauseKey(a, norm)
		if seen[key] {
			return false
		}
		seen[key] = true
		worklist = append(worklist, norm)
		return false
	}
	for _, cl := range initial {
		if admit(cl) {
			return satRefuted, 0
		}
	}

	resolvents := 0
	for len(worklist) > 0 {
		if time.Now().After(deadline) || ctx.Err() != nil {
			return satTimeout, resolvents
		}
		if len(seen) > c.maxClauses {
			return satOverflow, resolvents
		}

		given := worklist[0]
		worklist = worklist[1:]
		processed = append(processed, given)

		renamed := c.rename(given)
		for _, other := range processed {
			for _, res := range c.resolvents(renamed, other) {
				resolvents++
				if admit(res) {
					return satRefuted, resolvents
				}
			}
		}
	}
	return satOpen, resolvents
}

// resolvents returns every binary resolvent of two clauses. left must
// already be standardized apart from right.
func (c *clausifier) resolvents(left, right clause) []clause {
	a := c.arena
	var out []clause
	for i, l := range left {
		for j, r := range right {
			if l.neg == r.neg {
				continue
			}
			sub, ok := a.UnifyAtoms(l.atom, r.atom, nil)
			if !ok {
				continue
			}
			merged := make(clause, 0, len(left)+len(right)-2)
			for k, lit := range left {
				if k == i {
					continue
				}
				merged = append(merged, literal{neg: lit.neg, atom: a.ApplySubst(lit.atom, sub)})
			}
			for k, lit := range right {
				if k == j {
					continue
				}
				merged = append(merged, literal{neg: lit.neg, atom: a.ApplySubst(lit.atom, sub)})
			}
			out = append(out, merged)
		}
	}
	return out
}
