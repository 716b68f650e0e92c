package prover

import (
	"context"
	"time"

	"noesis/internal/kb"
	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/rules"
)

// =============================================================================
// FORWARD CHAINING
// =============================================================================

// derivation records how a fact entered the search, for step rendering.
type derivation struct {
	rule     string
	premises []logic.FormulaID
}

// search is the per-call state of one forward-chaining run. It owns no
// shared mutable structures: the snapshot is immutable and the arena is
// internally synchronized, so concurrent searches never interfere.
type search struct {
	registry *rules.Registry
	arena    *logic.Arena
	goal     logic.FormulaID
	negGoal  logic.FormulaID
	cfg      Config
	deadline time.Time

	facts   []logic.FormulaID
	visited map[logic.ContentHash]bool
	parents map[logic.FormulaID]derivation
	consts  []logic.TermID
}

func newSearch(registry *rules.Registry, snap *kb.Snapshot, goal logic.FormulaID, cfg Config, deadline time.Time) *search {
	a := snap.Arena()
	s := &search{
		registry: registry,
		arena:    a,
		goal:     goal,
		negGoal:  a.MkNot(goal),
		cfg:      cfg,
		deadline: deadline,
		visited:  make(map[logic.ContentHash]bool),
		parents:  make(map[logic.FormulaID]derivation),
	}
	if a.Formula(goal).Kind == logic.KindNot {
		s.negGoal = a.Formula(goal).Subs[0]
	}
	for _, f := range snap.Formulas() {
		s.admit(f, "", nil)
	}
	s.consts = constantPool(a, append(append([]logic.FormulaID(nil), snap.Formulas()...), goal))
	return s
}

// run chains until the goal (or its negation) is derived, the fact set
// stops growing, or a bound trips.
func (s *search) run(ctx context.Context) proof.Result {
	// The goal may already be among the axioms.
	for _, f := range s.facts {
		if s.arena.Equal(f, s.goal) {
			return proof.Result{Status: proof.StatusProved, Method: Method, Steps: s.steps(f)}
		}
	}

	cats := s.cfg.Categories
	if len(cats) == 0 {
		cats = rules.Categories()
	}

	for depth := 0; depth < s.cfg.MaxDepth; depth++ {
		if time.Now().After(s.deadline) || ctx.Err() != nil {
			return proof.Result{Status: proof.StatusTimeout, Method: Method}
		}
		grew := false
		for _, cat := range cats {
			for _, rule := range s.registry.Category(cat) {
				done, res := s.applyRule(ctx, rule, &grew)
				if done {
					return res
				}
			}
		}
		if !grew {
			return proof.Result{Status: proof.StatusUnknown, Method: Method}
		}
		if len(s.facts) > s.cfg.MaxFacts {
			return proof.Result{Status: proof.StatusUnknown, Method: Method}
		}
	}
	return proof.Result{Status: proof.StatusTimeout, Method: Method}
}

// applyRule enumerates every simultaneous premise match of one rule
// against the current fact set and admits the conclusions. Returns
// done=true with a final result when a conclusion settles the goal.
func (s *search) applyRule(ctx context.Context, rule *rules.Rule, grew *bool) (bool, proof.Result) {
	pat := s.registry.PatternArena()
	base := &rules.Match{
		Arena:    s.arena,
		Formulas: make(map[string]logic.FormulaID),
		Terms:    logic.Subst{},
		Consts:   s.consts,
		Goal:     s.goal,
	}
	// Snapshot the fact list: conclusions admitted during this rule's
	// enumeration join the next iteration, keeping rounds deterministic.
	facts := s.facts

	var fire func(i int, m *rules.Match) (bool, proof.Result)
	fire = func(i int, m *rules.Match) (bool, proof.Result) {
		if time.Now().After(s.deadline) || ctx.Err() != nil {
			return true, proof.Result{Status: proof.StatusTimeout, Method: Method}
		}
		if i == len(rule.Premises) {
			if rule.Side != nil && !rule.Side(m) {
				return false, proof.Result{}
			}
			for _, conclusion := range rules.Conclude(pat, rule, m) {
				if done, res := s.derive(conclusion, rule.Name, m.Premises, grew); done {
					return true, res
				}
			}
			return false, proof.Result{}
		}
		for _, fact := range facts {
			branch := rules.CloneMatch(m)
			if !rules.MatchPremise(pat, rule.Premises[i], branch, fact) {
				continue
			}
			branch.Premises = append(branch.Premises, fact)
			if done, res := fire(i+1, branch); done {
				return true, res
			}
		}
		return false, proof.Result{}
	}
	return fire(0, base)
}

// derive admits one conclusion and checks it against the goal.
func (s *search) derive(f logic.FormulaID, rule string, premises []logic.FormulaID, grew *bool) (bool, proof.Result) {
	if !s.admit(f, rule, premises) {
		return false, proof.Result{}
	}
	*grew = true
	if s.arena.Equal(f, s.goal) {
		return true, proof.Result{Status: proof.StatusProved, Method: Method, Steps: s.steps(f)}
	}
	if s.arena.Equal(f, s.negGoal) {
		return true, proof.Result{Status: proof.StatusDisproved, Method: Method, Steps: s.steps(f)}
	}
	return false, proof.Result{}
}

// admit records a fact unless an alpha-equivalent one is already known.
func (s *search) admit(f logic.FormulaID, rule string, premises []logic.FormulaID) bool {
	h := s.arena.Hash(f)
	if s.visited[h] {
		return false
	}
	s.visited[h] = true
	s.facts = append(s.facts, f)
	if rule != "" {
		s.parents[f] = derivation{rule: rule, premises: premises}
	}
	return true
}

// steps reconstructs the derivation of f in premise-first order.
func (s *search) steps(f logic.FormulaID) []proof.Step {
	var out []proof.Step
	emitted := make(map[logic.FormulaID]bool)
	var walk func(logic.FormulaID)
	walk = func(id logic.FormulaID) {
		if emitted[id] {
			return
		}
		emitted[id] = true
		d, ok := s.parents[id]
		if !ok {
			return // axiom
		}
		prems := make([]string, len(d.premises))
		for i, p := range d.premises {
			walk(p)
			prems[i] = s.arena.Canonical(p)
		}
		out = append(out, proof.Step{
			RuleName:   d.rule,
			Premises:   prems,
			Conclusion: s.arena.Canonical(id),
		})
	}
	walk(f)
	return out
}

// constantPool gathers the constants mentioned anywhere in the problem,
// for the instantiation rules. Skolem/witness constants introduced
// during search are deliberately excluded to keep instantiation from
// feeding on its own output.
func constantPool(a *logic.Arena, formulas []logic.FormulaID) []logic.TermID {
	seen := make(map[string]bool)
	var pool []logic.TermID
	for _, f := range formulas {
		for _, name := range a.Constants(f) {
			if seen[name] || name[0] == '$' {
				continue
			}
			seen[name] = true
			pool = append(pool, a.MkConst(name))
		}
	}
	return pool
}
