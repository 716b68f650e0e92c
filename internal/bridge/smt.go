package bridge

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/syntax"
)

// =============================================================================
// SMT ADAPTER
// =============================================================================

// SMT proves FOL and arithmetic goals through an SMT-LIB v2 solver. The
// goal is negated and asserted with the axioms: unsat means the goal
// follows, sat means a countermodel exists.
type SMT struct {
	run runner
}

// NewSMT creates the adapter over the given solver binary. Empty means
// z3 on PATH.
func NewSMT(binary string) *SMT {
	if binary == "" {
		binary = "z3"
	}
	return &SMT{run: runner{
		bridge: "smt-" + filepath.Base(binary),
		binary: binary,
		args:   []string{"-in", "-smt2"},
	}}
}

func (s *SMT) Name() string   { return s.run.bridge }
func (s *SMT) Method() string { return "smt" }

func (s *SMT) Capabilities() CapabilitySet {
	return CapabilitySet{Propositional: true, FirstOrder: true, Arithmetic: true}
}

func (s *SMT) Translate(a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID) (string, error) {
	tr := &smtTranslator{arena: a, preds: map[string]int{}, funcs: map[string]int{}, consts: map[string]bool{}}
	for _, ax := range axioms {
		tr.scan(ax)
	}
	tr.scan(goal)
	if tr.err != nil {
		return "", tr.err
	}

	var b strings.Builder
	b.WriteString("(set-logic ALL)\n")
	srt := "U"
	if tr.arith {
		srt = "Int"
	} else {
		b.WriteString("(declare-sort U 0)\n")
	}
	for _, name := range sortedKeys(tr.consts) {
		b.WriteString("(declare-const " + name + " " + srt + ")\n")
	}
	for _, name := range sortedArityKeys(tr.funcs) {
		b.WriteString("(declare-fun " + name + " " + sortTuple(srt, tr.funcs[name]) + " " + srt + ")\n")
	}
	for _, name := range sortedArityKeys(tr.preds) {
		b.WriteString("(declare-fun " + name + " " + sortTuple(srt, tr.preds[name]) + " Bool)\n")
	}
	for _, ax := range axioms {
		b.WriteString("(assert " + tr.formula(tr.close(ax), 0) + ")\n")
	}
	b.WriteString("(assert (not " + tr.formula(tr.close(goal), 0) + "))\n")
	b.WriteString("(check-sat)\n")
	if tr.err != nil {
		return "", tr.err
	}
	return b.String(), nil
}

func (s *SMT) Invoke(ctx context.Context, input string, timeout time.Duration) (string, error) {
	return s.run.run(ctx, input, timeout)
}

func (s *SMT) ParseResult(raw string) proof.Result {
	for _, line := range strings.Split(raw, "\n") {
		switch strings.TrimSpace(line) {
		case "unsat":
			return proof.Result{Status: proof.StatusProved, Message: "negated goal unsatisfiable"}
		case "sat":
			return proof.Result{Status: proof.StatusDisproved, Message: "countermodel exists"}
		case "unknown":
			return proof.Result{Status: proof.StatusUnknown}
		case "timeout":
			return proof.Result{Status: proof.StatusTimeout}
		}
	}
	return proof.Result{Status: proof.StatusError, Message: "unrecognized solver output: " + head(raw)}
}

// arith symbol tables shared by scan and the writers.
var smtPreds = map[string]string{"eq": "=", "lt": "<", "leq": "<=", "gt": ">", "geq": ">="}
var smtFuncs = map[string]string{"add": "+", "sub": "-", "mul": "*", "div": "div"}

type smtTranslator struct {
	arena  *logic.Arena
	preds  map[string]int
	funcs  map[string]int
	consts map[string]bool
	arith  bool
	err    error
}

// scan collects the signature, detects arithmetic and rejects anything
// outside the first-order fragment.
func (t *smtTranslator) scan(f logic.FormulaID) {
	a := t.arena
	a.Walk(f, func(_ logic.FormulaID, node logic.Formula) bool {
		switch node.Kind {
		case logic.KindAtom:
			if op, ok := smtPreds[node.Sym]; ok {
				if op != "=" {
					t.arith = true
				}
			} else {
				t.preds[node.Sym] = len(node.Args)
			}
			for _, arg := range node.Args {
				t.scanTerm(arg)
			}
		case logic.KindNot, logic.KindAnd, logic.KindOr, logic.KindImplies,
			logic.KindIff, logic.KindQuantifier:
		default:
			t.fail(node.Kind.String())
			return false
		}
		return true
	})
}

func (t *smtTranslator) scanTerm(id logic.TermID) {
	a := t.arena
	term := a.Term(id)
	switch term.Kind {
	case logic.TermConst:
		if isNumeral(term.Name) {
			t.arith = true
		} else {
			t.consts[term.Name] = true
		}
	case logic.TermApp:
		if _, ok := smtFuncs[term.Name]; ok {
			t.arith = true
		} else {
			t.funcs[term.Name] = len(term.Args)
		}
		for _, arg := range term.Args {
			t.scanTerm(arg)
		}
	}
}

func (t *smtTranslator) fail(construct string) {
	if t.err == nil {
		t.err = &syntax.TranslationError{Format: "smtlib2", Construct: construct}
	}
}

// close universally quantifies the free variables so every assertion is
// a sentence.
func (t *smtTranslator) close(f logic.FormulaID) logic.FormulaID {
	for _, name := range t.arena.FreeVars(f) {
		f = t.arena.Abstract(f, name, logic.Forall)
	}
	return f
}

// formula renders one closed formula. depth counts enclosing binders;
// the binder at absolute depth d prints as v!d, a spelling the surface
// grammars cannot produce.
func (t *smtTranslator) formula(id logic.FormulaID, depth int) string {
	a := t.arena
	f := a.Formula(id)
	switch f.Kind {
	case logic.KindAtom:
		sym := f.Sym
		if op, ok := smtPreds[sym]; ok {
			sym = op
		}
		if len(f.Args) == 0 {
			if sym == f.Sym {
				return sym
			}
			return "(" + sym + ")"
		}
		parts := make([]string, len(f.Args))
		for i, arg := range f.Args {
			parts[i] = t.term(arg, depth)
		}
		return "(" + sym + " " + strings.Join(parts, " ") + ")"
	case logic.KindNot:
		return "(not " + t.formula(f.Subs[0], depth) + ")"
	case logic.KindAnd:
		return "(and " + t.formula(f.Subs[0], depth) + " " + t.formula(f.Subs[1], depth) + ")"
	case logic.KindOr:
		return "(or " + t.formula(f.Subs[0], depth) + " " + t.formula(f.Subs[1], depth) + ")"
	case logic.KindImplies:
		return "(=> " + t.formula(f.Subs[0], depth) + " " + t.formula(f.Subs[1], depth) + ")"
	case logic.KindIff:
		return "(= " + t.formula(f.Subs[0], depth) + " " + t.formula(f.Subs[1], depth) + ")"
	case logic.KindQuantifier:
		q := "forall"
		if f.Quant() == logic.Exists {
			q = "exists"
		}
		srt := "U"
		if t.arith {
			srt = "Int"
		}
		v := "v!" + strconv.Itoa(depth)
		return "(" + q + " ((" + v + " " + srt + ")) " + t.formula(f.Subs[0], depth+1) + ")"
	default:
		t.fail(f.Kind.String())
		return "false"
	}
}

func (t *smtTranslator) term(id logic.TermID, depth int) string {
	a := t.arena
	term := a.Term(id)
	switch term.Kind {
	case logic.TermVar:
		// Bound index i refers to the binder i levels up, at absolute
		// depth depth-1-i.
		return "v!" + strconv.Itoa(depth-1-term.Index)
	case logic.TermConst:
		return term.Name
	case logic.TermApp:
		sym := term.Name
		if op, ok := smtFuncs[sym]; ok {
			sym = op
		}
		parts := make([]string, len(term.Args))
		for i, arg := range term.Args {
			parts[i] = t.term(arg, depth)
		}
		return "(" + sym + " " + strings.Join(parts, " ") + ")"
	}
	return term.Name
}

func isNumeral(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortTuple(srt string, arity int) string {
	parts := make([]string, arity)
	for i := range parts {
		parts[i] = srt
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedArityKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func head(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	if len(raw) > 120 {
		raw = raw[:120]
	}
	return raw
}
