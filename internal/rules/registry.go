// Package rules holds the inference rule library: ~127 rules across the
// propositional, quantifier, cognitive, deontic and temporal/modal
// categories, each a (premise patterns, side condition, conclusion
// builder) triple. Rules are declared as native-syntax pattern strings
// (?p metavariables) parsed once into the registry's own pattern arena
// at construction; the registry is immutable afterwards.
package rules

import (
	"fmt"
	"sort"

	"noesis/internal/logic"
	"noesis/internal/syntax"
)

// Category groups rules for the prover's prioritized indexes.
type Category string

const (
	CategoryPropositional Category = "propositional"
	CategoryQuantifier    Category = "quantifier"
	CategoryCognitive     Category = "cognitive"
	CategoryDeontic       Category = "deontic"
	CategoryTemporal      Category = "temporal"
)

// Categories lists every category in registration order.
func Categories() []Category {
	return []Category{
		CategoryPropositional,
		CategoryQuantifier,
		CategoryCognitive,
		CategoryDeontic,
		CategoryTemporal,
	}
}

// Match carries one successful simultaneous match of a rule's premises.
// Formulas maps ?metavariables to fact-arena formulas; Terms maps
// pattern term variables to fact-arena terms. Consts is the constant
// pool of the current search (for instantiation rules) and Goal the
// current goal (for goal-directed rules such as or-introduction).
type Match struct {
	Arena    *logic.Arena
	Formulas map[string]logic.FormulaID
	Terms    logic.Subst
	Premises []logic.FormulaID
	Consts   []logic.TermID
	Goal     logic.FormulaID
}

// Rule is one immutable inference rule. Premise patterns and the
// conclusion template live in the registry's pattern arena. Rules whose
// conclusion cannot be expressed as a template set Build instead; Build
// may return several conclusions or none.
type Rule struct {
	Name       string
	Category   Category
	Premises   []logic.FormulaID
	Side       func(m *Match) bool
	Conclusion logic.FormulaID
	Build      func(m *Match) []logic.FormulaID
}

// Registry is the immutable rule index.
type Registry struct {
	arena      *logic.Arena
	rules      []*Rule
	byCategory map[Category][]*Rule
	byName     map[string]*Rule
}

// NewRegistry builds the full rule library.
func NewRegistry() *Registry {
	r := &Registry{
		arena:      logic.NewArena(),
		byCategory: make(map[Category][]*Rule),
		byName:     make(map[string]*Rule),
	}
	r.registerPropositional()
	r.registerQuantifier()
	r.registerCognitive()
	r.registerDeontic()
	r.registerTemporal()
	return r
}

// PatternArena returns the arena the rule patterns live in.
func (r *Registry) PatternArena() *logic.Arena { return r.arena }

// All returns every rule in registration order.
func (r *Registry) All() []*Rule { return r.rules }

// Category returns the rules of one category.
func (r *Registry) Category(c Category) []*Rule { return r.byCategory[c] }

// Lookup returns a rule by name.
func (r *Registry) Lookup(name string) (*Rule, bool) {
	rule, ok := r.byName[name]
	return rule, ok
}

// Names returns every rule name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule.Name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.rules) }

// add registers a template rule. Patterns and the conclusion are native
// pattern syntax; a malformed pattern is a programming error and panics
// at startup.
func (r *Registry) add(name string, cat Category, premises []string, conclusion string) *Rule {
	rule := &Rule{Name: name, Category: cat}
	for _, p := range premises {
		rule.Premises = append(rule.Premises, r.mustPattern(name, p))
	}
	rule.Conclusion = r.mustPattern(name, conclusion)
	r.register(rule)
	return rule
}

// addBuilt registers a rule with a Go conclusion builder.
func (r *Registry) addBuilt(name string, cat Category, premises []string, build func(m *Match) []logic.FormulaID) *Rule {
	rule := &Rule{Name: name, Category: cat, Conclusion: logic.NoFormula, Build: build}
	for _, p := range premises {
		rule.Premises = append(rule.Premises, r.mustPattern(name, p))
	}
	r.register(rule)
	return rule
}

func (r *Registry) register(rule *Rule) {
	if _, dup := r.byName[rule.Name]; dup {
		panic(fmt.Sprintf("rules: duplicate rule %q", rule.Name))
	}
	r.rules = append(r.rules, rule)
	r.byCategory[rule.Category] = append(r.byCategory[rule.Category], rule)
	r.byName[rule.Name] = rule
}

func (r *Registry) mustPattern(rule, pattern string) logic.FormulaID {
	f, err := syntax.ParsePattern(r.arena, pattern)
	if err != nil {
		panic(fmt.Sprintf("rules: bad pattern in %s: %q: %v", rule, pattern, err))
	}
	return f
}

// withSide attaches a side condition to the last registered rule.
func (r *Rule) withSide(side func(m *Match) bool) *Rule {
	r.Side = side
	return r
}
