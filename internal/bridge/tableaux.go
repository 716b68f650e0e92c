package bridge

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/syntax"
)

// =============================================================================
// MODAL TABLEAUX ADAPTER
// =============================================================================

// Tableaux proves modal, temporal and deontic goals through an external
// tableaux tool speaking the boxed string form. Deontic operators are
// lowered to their modal reading (obligation as necessity, permission
// as possibility) before serialization.
type Tableaux struct {
	run  runner
	conv syntax.ModalConverter
}

// NewTableaux creates the adapter over the given tool binary.
func NewTableaux(binary string) *Tableaux {
	if binary == "" {
		binary = "moltap"
	}
	return &Tableaux{run: runner{
		bridge: "tableaux-" + filepath.Base(binary),
		binary: binary,
	}}
}

func (t *Tableaux) Name() string   { return t.run.bridge }
func (t *Tableaux) Method() string { return "tableaux" }

func (t *Tableaux) Capabilities() CapabilitySet {
	return CapabilitySet{Propositional: true, Modal: true, Temporal: true, Deontic: true}
}

// Translate writes one axiom per line and the goal as the conjecture.
func (t *Tableaux) Translate(a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID) (string, error) {
	var b strings.Builder
	for _, ax := range axioms {
		s, _, err := t.conv.Serialize(a, lowerDeontic(a, ax))
		if err != nil {
			return "", err
		}
		b.WriteString("axiom: " + s + "\n")
	}
	s, _, err := t.conv.Serialize(a, lowerDeontic(a, goal))
	if err != nil {
		return "", err
	}
	b.WriteString("conjecture: " + s + "\n")
	return b.String(), nil
}

func (t *Tableaux) Invoke(ctx context.Context, input string, timeout time.Duration) (string, error) {
	return t.run.run(ctx, input, timeout)
}

// ParseResult interprets the tableau over the negated conjecture: every
// branch closed means the conjecture follows, a saturated open branch
// is a countermodel.
func (t *Tableaux) ParseResult(raw string) proof.Result {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "unsatisfiable"), strings.Contains(lower, "all branches closed"):
		return proof.Result{Status: proof.StatusProved, Message: "tableau closed"}
	case strings.Contains(lower, "satisfiable"), strings.Contains(lower, "countermodel"):
		return proof.Result{Status: proof.StatusDisproved, Message: "open branch countermodel"}
	case strings.Contains(lower, "open"), strings.Contains(lower, "unknown"):
		return proof.Result{Status: proof.StatusUnknown}
	case strings.Contains(lower, "timeout"):
		return proof.Result{Status: proof.StatusTimeout}
	}
	return proof.Result{Status: proof.StatusError, Message: "unrecognized tableaux output: " + head(raw)}
}

// lowerDeontic rewrites deontic operators to modal ones: O as [], P as
// <>, F as []~. The acting agent is dropped; the modal reading keeps
// only the operator force.
func lowerDeontic(a *logic.Arena, id logic.FormulaID) logic.FormulaID {
	f := a.Formula(id)
	if f.Kind == logic.KindDeontic {
		body := lowerDeontic(a, f.Subs[0])
		switch f.Deontic() {
		case logic.Obligatory:
			return a.MkModal(logic.Necessity, body)
		case logic.Permitted:
			return a.MkModal(logic.Possibility, body)
		default:
			return a.MkModal(logic.Necessity, a.MkNot(body))
		}
	}
	changed := false
	subs := make([]logic.FormulaID, len(f.Subs))
	for i, sub := range f.Subs {
		subs[i] = lowerDeontic(a, sub)
		if subs[i] != sub {
			changed = true
		}
	}
	if !changed {
		return id
	}
	switch f.Kind {
	case logic.KindNot:
		return a.MkNot(subs[0])
	case logic.KindAnd:
		return a.MkAnd(subs[0], subs[1])
	case logic.KindOr:
		return a.MkOr(subs[0], subs[1])
	case logic.KindImplies:
		return a.MkImplies(subs[0], subs[1])
	case logic.KindIff:
		return a.MkIff(subs[0], subs[1])
	case logic.KindModal:
		return a.MkModal(f.Modal(), subs[0])
	case logic.KindTemporal:
		second := logic.NoFormula
		if f.Temporal().Binary() {
			second = subs[1]
		}
		return a.MkTemporal(f.Temporal(), subs[0], second)
	case logic.KindQuantifier:
		return a.MkQuantifier(f.Quant(), f.Sym, subs[0])
	case logic.KindCognitive:
		return a.MkCognitive(f.Cognitive(), f.Agent, subs[0])
	}
	return id
}
