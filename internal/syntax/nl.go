package syntax

import (
	"fmt"
	"strings"

	"noesis/internal/logic"
)

// =============================================================================
// NATURAL-LANGUAGE GLOSS
// =============================================================================
//
// One-way template rendering of a formula into English. A grammar
// composition layer rewrites the deontic and cognitive forms into
// subject-verb sentences when the action's shape allows it; any failure
// in the grammar path silently falls back to the templates, so
// conversion to NL never errors. Confidence decays with nesting depth
// since deeply stacked templates read increasingly mechanically.

// NLConverter renders English glosses. Parse is unsupported.
type NLConverter struct{}

func (NLConverter) Name() string   { return "nl" }
func (NLConverter) Lossless() bool { return false }

func (NLConverter) Validate(input string) ValidationResult {
	return ValidationResult{Valid: false, Errors: []string{"natural language cannot be parsed"}}
}

func (NLConverter) Parse(a *logic.Arena, input string) (logic.FormulaID, error) {
	return logic.NoFormula, &TranslationError{Format: "nl", Construct: "parsing"}
}

func (NLConverter) Serialize(a *logic.Arena, f logic.FormulaID) (string, []string, error) {
	g := &glosser{arena: a}
	text := g.gloss(f, 0)
	var warnings []string
	if g.maxDepth > 3 {
		warnings = append(warnings, "deeply nested formula; gloss may read mechanically")
	}
	return sentence(text), warnings, nil
}

type glosser struct {
	arena    *logic.Arena
	maxDepth int
}

func (g *glosser) gloss(id logic.FormulaID, depth int) string {
	if depth > g.maxDepth {
		g.maxDepth = depth
	}
	f := g.arena.Formula(id)
	switch f.Kind {
	case logic.KindAtom:
		return g.atomGloss(f)
	case logic.KindNot:
		return "it is not the case that " + g.gloss(f.Subs[0], depth+1)
	case logic.KindAnd:
		return g.gloss(f.Subs[0], depth+1) + " and " + g.gloss(f.Subs[1], depth+1)
	case logic.KindOr:
		return g.gloss(f.Subs[0], depth+1) + " or " + g.gloss(f.Subs[1], depth+1)
	case logic.KindImplies:
		return "if " + g.gloss(f.Subs[0], depth+1) + ", then " + g.gloss(f.Subs[1], depth+1)
	case logic.KindIff:
		return g.gloss(f.Subs[0], depth+1) + " exactly when " + g.gloss(f.Subs[1], depth+1)
	case logic.KindQuantifier:
		name := f.Sym
		if name == "" {
			name = "x"
		}
		q := "for every "
		if f.Quant() == logic.Exists {
			q = "there is some "
		}
		return q + name + " such that " + g.gloss(f.Subs[0], depth+1)
	case logic.KindModal:
		if f.Modal() == logic.Possibility {
			return "it is possible that " + g.gloss(f.Subs[0], depth+1)
		}
		return "it is necessary that " + g.gloss(f.Subs[0], depth+1)
	case logic.KindTemporal:
		switch f.Temporal() {
		case logic.Always:
			return "it is always the case that " + g.gloss(f.Subs[0], depth+1)
		case logic.Eventually:
			return "eventually " + g.gloss(f.Subs[0], depth+1)
		case logic.Next:
			return "in the next moment " + g.gloss(f.Subs[0], depth+1)
		case logic.Until:
			return g.gloss(f.Subs[0], depth+1) + " until " + g.gloss(f.Subs[1], depth+1)
		default:
			return g.gloss(f.Subs[0], depth+1) + " ever since " + g.gloss(f.Subs[1], depth+1)
		}
	case logic.KindDeontic:
		if s, ok := g.grammarDeontic(f, depth); ok {
			return s
		}
		agent := g.arena.TermString(f.Agent)
		switch f.Deontic() {
		case logic.Permitted:
			return fmt.Sprintf("%s is permitted to bring about that %s", agent, g.gloss(f.Subs[0], depth+1))
		case logic.Forbidden:
			return fmt.Sprintf("%s is forbidden from bringing about that %s", agent, g.gloss(f.Subs[0], depth+1))
		default:
			return fmt.Sprintf("%s is obligated to bring about that %s", agent, g.gloss(f.Subs[0], depth+1))
		}
	case logic.KindCognitive:
		if f.Cognitive() == logic.Common {
			return "it is common knowledge that " + g.gloss(f.Subs[0], depth+1)
		}
		agent := g.arena.TermString(f.Agent)
		verb := map[logic.CognitiveKind]string{
			logic.Knows: "knows", logic.Believes: "believes",
			logic.Perceives: "perceives", logic.Desires: "desires",
			logic.Intends: "intends", logic.Says: "says",
		}[f.Cognitive()]
		return fmt.Sprintf("%s %s that %s", agent, verb, g.gloss(f.Subs[0], depth+1))
	default:
		return g.arena.String(id)
	}
}

func (g *glosser) atomGloss(f logic.Formula) string {
	if op, ok := map[string]string{
		"eq": "equals", "lt": "is less than", "leq": "is at most",
		"gt": "is greater than", "geq": "is at least",
	}[f.Sym]; ok && len(f.Args) == 2 {
		return fmt.Sprintf("%s %s %s", g.arena.TermString(f.Args[0]), op, g.arena.TermString(f.Args[1]))
	}
	if len(f.Args) == 0 {
		return f.Sym + " holds"
	}
	parts := make([]string, len(f.Args))
	for i, arg := range f.Args {
		parts[i] = g.arena.TermString(arg)
	}
	return fmt.Sprintf("%s(%s) holds", f.Sym, strings.Join(parts, ", "))
}

// grammarDeontic is the grammar-composition path: when the action is an
// atom whose first argument is the acting agent, compose an agent-verb
// sentence ("agent1 must pay 100"). Returns ok=false to fall back to the
// template path.
func (g *glosser) grammarDeontic(f logic.Formula, depth int) (string, bool) {
	action := g.arena.Formula(f.Subs[0])
	if action.Kind != logic.KindAtom || len(action.Args) == 0 {
		return "", false
	}
	if action.Args[0] != f.Agent {
		return "", false
	}
	agent := g.arena.TermString(f.Agent)
	rest := make([]string, 0, len(action.Args)-1)
	for _, arg := range action.Args[1:] {
		rest = append(rest, g.arena.TermString(arg))
	}
	var aux string
	switch f.Deontic() {
	case logic.Permitted:
		aux = "may"
	case logic.Forbidden:
		aux = "must not"
	default:
		aux = "must"
	}
	s := fmt.Sprintf("%s %s %s", agent, aux, action.Sym)
	if len(rest) > 0 {
		s += " " + strings.Join(rest, " and ")
	}
	return s, true
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
