package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/syntax"
)

// =============================================================================
// DATALOG DELEGATE
// =============================================================================

// Datalog answers Horn-fragment queries through the Mangle engine: the
// axioms become a Datalog program, the goal a ground query atom, and
// bottom-up evaluation decides membership. Anything outside the
// fragment is a TranslationError and the router moves on.
type Datalog struct{}

// NewDatalog creates the delegate.
func NewDatalog() *Datalog { return &Datalog{} }

func (d *Datalog) Name() string   { return "datalog" }
func (d *Datalog) Method() string { return "datalog" }

func (d *Datalog) Capabilities() CapabilitySet {
	return CapabilitySet{Propositional: true, FirstOrder: true}
}

// Translate renders the program with the query atom on a leading
// comment line. Facts must be ground atoms; rules must be universally
// quantified implications from an atom conjunction to one atom.
func (d *Datalog) Translate(a *logic.Arena, goal logic.FormulaID, axioms []logic.FormulaID) (string, error) {
	tr := &datalogTranslator{arena: a}
	if node := a.Formula(goal); node.Kind != logic.KindAtom || !a.IsGround(goal) {
		return "", &syntax.TranslationError{Format: "mangle", Construct: "non-ground or non-atomic goal"}
	}
	query, err := tr.atom(goal)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# query: " + query + "\n")
	for _, ax := range axioms {
		line, err := tr.clause(ax)
		if err != nil {
			return "", err
		}
		b.WriteString(line + "\n")
	}
	return b.String(), nil
}

// Invoke evaluates in process: parse, analyze, run bottom-up, check the
// query atom against the derived facts.
func (d *Datalog) Invoke(ctx context.Context, input string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	query, program, ok := strings.Cut(input, "\n")
	if !ok || !strings.HasPrefix(query, "# query: ") {
		return "", &Error{Bridge: d.Name(), Op: "invoke", Err: fmt.Errorf("missing query line")}
	}
	query = strings.TrimPrefix(query, "# query: ")

	unit, err := parse.Unit(strings.NewReader(program))
	if err != nil {
		return "", &Error{Bridge: d.Name(), Op: "parse program", Err: err}
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return "", &Error{Bridge: d.Name(), Op: "analyze program", Err: err}
	}
	store := factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore())
	if _, err := mengine.EvalProgramWithStats(info, store); err != nil {
		return "", &Error{Bridge: d.Name(), Op: "evaluate program", Err: err}
	}
	if ctx.Err() != nil {
		return "", &Error{Bridge: d.Name(), Op: "invoke", Err: ctx.Err()}
	}

	goalAtom, err := parse.Atom(query)
	if err != nil {
		return "", &Error{Bridge: d.Name(), Op: "parse query", Err: err}
	}
	found := false
	_ = store.GetFacts(ast.NewQuery(goalAtom.Predicate), func(fact ast.Atom) error {
		if fact.String() == goalAtom.String() {
			found = true
		}
		return nil
	})
	if found {
		return "derived", nil
	}
	return "not-derived", nil
}

// ParseResult maps membership to Proved. Absence under bottom-up
// evaluation is closed-world failure, which proves nothing here.
func (d *Datalog) ParseResult(raw string) proof.Result {
	if strings.TrimSpace(raw) == "derived" {
		return proof.Result{Status: proof.StatusProved, Message: "goal derived by bottom-up evaluation"}
	}
	return proof.Result{Status: proof.StatusUnknown}
}

type datalogTranslator struct {
	arena *logic.Arena
}

// clause renders one axiom as a fact or rule line.
func (t *datalogTranslator) clause(f logic.FormulaID) (string, error) {
	a := t.arena
	// Peel the universal prefix; binder occurrences become fresh free
	// variables that render as Datalog variables.
	for a.Formula(f).Kind == logic.KindQuantifier {
		if a.Formula(f).Quant() != logic.Forall {
			return "", &syntax.TranslationError{Format: "mangle", Construct: "existential quantifier"}
		}
		f, _ = a.Instantiate(f, a.FreshVar("q"))
	}
	node := a.Formula(f)
	switch node.Kind {
	case logic.KindAtom:
		if !a.IsGround(f) {
			return "", &syntax.TranslationError{Format: "mangle", Construct: "non-ground fact"}
		}
		s, err := t.atom(f)
		if err != nil {
			return "", err
		}
		return s + ".", nil
	case logic.KindImplies:
		head, err := t.headAtom(node.Subs[1])
		if err != nil {
			return "", err
		}
		var body []string
		if err := t.bodyAtoms(node.Subs[0], &body); err != nil {
			return "", err
		}
		return head + " :- " + strings.Join(body, ", ") + ".", nil
	default:
		return "", &syntax.TranslationError{Format: "mangle", Construct: node.Kind.String()}
	}
}

func (t *datalogTranslator) headAtom(f logic.FormulaID) (string, error) {
	if t.arena.Formula(f).Kind != logic.KindAtom {
		return "", &syntax.TranslationError{Format: "mangle", Construct: "non-atomic rule head"}
	}
	return t.atom(f)
}

func (t *datalogTranslator) bodyAtoms(f logic.FormulaID, out *[]string) error {
	node := t.arena.Formula(f)
	switch node.Kind {
	case logic.KindAnd:
		if err := t.bodyAtoms(node.Subs[0], out); err != nil {
			return err
		}
		return t.bodyAtoms(node.Subs[1], out)
	case logic.KindAtom:
		s, err := t.atom(f)
		if err != nil {
			return err
		}
		*out = append(*out, s)
		return nil
	default:
		return &syntax.TranslationError{Format: "mangle", Construct: node.Kind.String() + " in rule body"}
	}
}

func (t *datalogTranslator) atom(f logic.FormulaID) (string, error) {
	a := t.arena
	node := a.Formula(f)
	if len(node.Args) == 0 {
		return node.Sym + "()", nil
	}
	parts := make([]string, len(node.Args))
	for i, arg := range node.Args {
		s, err := t.term(arg)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return node.Sym + "(" + strings.Join(parts, ", ") + ")", nil
}

func (t *datalogTranslator) term(id logic.TermID) (string, error) {
	term := t.arena.Term(id)
	switch term.Kind {
	case logic.TermVar:
		// Datalog variables are uppercase; '$' prefixed fresh names
		// sanitize to valid spellings.
		return "V" + sanitizeVar(term.Name), nil
	case logic.TermConst:
		if isNumeral(term.Name) {
			return term.Name, nil
		}
		return "/" + term.Name, nil
	default:
		return "", &syntax.TranslationError{Format: "mangle", Construct: "function application"}
	}
}

func sanitizeVar(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '$' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
