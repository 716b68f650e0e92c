package rules

import (
	"sort"
	"testing"

	"noesis/internal/logic"
	"noesis/internal/syntax"
)

func mustParse(t *testing.T, a *logic.Arena, src string) logic.FormulaID {
	t.Helper()
	f, err := syntax.ParseNative(a, src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return f
}

// matchAll matches every premise of rule against facts in order,
// returning nil when any premise fails.
func matchAll(t *testing.T, r *Registry, rule *Rule, m *Match, facts ...logic.FormulaID) *Match {
	t.Helper()
	if len(facts) != len(rule.Premises) {
		t.Fatalf("%s takes %d premises, got %d facts", rule.Name, len(rule.Premises), len(facts))
	}
	for i, pat := range rule.Premises {
		if !MatchPremise(r.PatternArena(), pat, m, facts[i]) {
			return nil
		}
		m.Premises = append(m.Premises, facts[i])
	}
	if rule.Side != nil && !rule.Side(m) {
		return nil
	}
	return m
}

func lookup(t *testing.T, r *Registry, name string) *Rule {
	t.Helper()
	rule, ok := r.Lookup(name)
	if !ok {
		t.Fatalf("rule %q not registered", name)
	}
	return rule
}

func TestRegistryCoversEveryCategory(t *testing.T) {
	r := NewRegistry()
	if r.Len() < 100 {
		t.Fatalf("registry holds %d rules, want at least 100", r.Len())
	}
	for _, c := range Categories() {
		if len(r.Category(c)) == 0 {
			t.Fatalf("category %s is empty", c)
		}
	}
	names := r.Names()
	if !sort.StringsAreSorted(names) {
		t.Fatalf("Names not sorted: %v", names[:5])
	}
	if len(names) != r.Len() {
		t.Fatalf("Names returned %d entries for %d rules", len(names), r.Len())
	}
	if len(r.All()) != r.Len() {
		t.Fatalf("All returned %d rules for Len %d", len(r.All()), r.Len())
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("no_such_rule"); ok {
		t.Fatal("Lookup found a rule that was never registered")
	}
}

func TestMatchModusPonens(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "modus_ponens")

	p := mustParse(t, a, "p(a)")
	impl := mustParse(t, a, "(p(a) -> q(a))")
	m := matchAll(t, r, rule, &Match{Arena: a, Formulas: map[string]logic.FormulaID{}, Terms: logic.Subst{}}, p, impl)
	if m == nil {
		t.Fatal("premises did not match")
	}
	out := Conclude(r.PatternArena(), rule, m)
	if len(out) != 1 {
		t.Fatalf("got %d conclusions, want 1", len(out))
	}
	want := mustParse(t, a, "q(a)")
	if !a.Equal(out[0], want) {
		t.Fatalf("concluded %s, want q(a)", a.Canonical(out[0]))
	}
}

func TestMatchBindingConsistency(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "modus_ponens")

	// ?p binds p(a) in the first premise; an implication from q(b)
	// cannot satisfy the second.
	p := mustParse(t, a, "p(a)")
	impl := mustParse(t, a, "(q(b) -> r(b))")
	m := matchAll(t, r, rule, &Match{Arena: a, Formulas: map[string]logic.FormulaID{}, Terms: logic.Subst{}}, p, impl)
	if m != nil {
		t.Fatal("mismatched metavariable binding accepted")
	}
}

func TestCloneMatchIsolatesBindings(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "modus_ponens")

	base := &Match{Arena: a, Formulas: map[string]logic.FormulaID{}, Terms: logic.Subst{}}
	p := mustParse(t, a, "p(a)")
	if !MatchPremise(r.PatternArena(), rule.Premises[0], base, p) {
		t.Fatal("first premise did not match")
	}
	clone := CloneMatch(base)
	impl := mustParse(t, a, "(p(a) -> q(a))")
	if !MatchPremise(r.PatternArena(), rule.Premises[1], clone, impl) {
		t.Fatal("second premise did not match on the clone")
	}
	if _, leaked := base.Formulas["?q"]; leaked {
		t.Fatal("clone binding leaked into the parent match")
	}
}

func TestConcludeDeonticTemplate(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "obligation_to_permission")

	fact := mustParse(t, a, "Obligatory[agent1](pay(agent1, 100))")
	m := matchAll(t, r, rule, &Match{Arena: a, Formulas: map[string]logic.FormulaID{}, Terms: logic.Subst{}}, fact)
	if m == nil {
		t.Fatal("obligation did not match")
	}
	out := Conclude(r.PatternArena(), rule, m)
	if len(out) != 1 {
		t.Fatalf("got %d conclusions, want 1", len(out))
	}
	want := mustParse(t, a, "Permitted[agent1](pay(agent1, 100))")
	if !a.Equal(out[0], want) {
		t.Fatalf("concluded %s", a.Canonical(out[0]))
	}
}

func TestConcludeQuantifierNegationTemplate(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "quantifier_negation_forall")

	fact := mustParse(t, a, "~(forall x. p(x))")
	m := matchAll(t, r, rule, &Match{Arena: a, Formulas: map[string]logic.FormulaID{}, Terms: logic.Subst{}}, fact)
	if m == nil {
		t.Fatal("negated universal did not match")
	}
	out := Conclude(r.PatternArena(), rule, m)
	if len(out) != 1 {
		t.Fatalf("got %d conclusions, want 1", len(out))
	}
	want := mustParse(t, a, "exists x. ~p(x)")
	if !a.Equal(out[0], want) {
		t.Fatalf("concluded %s, want exists x. ~p(x)", a.Canonical(out[0]))
	}
}

func TestUniversalInstantiationEnumeratesConstants(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "universal_instantiation")

	fact := mustParse(t, a, "forall x. p(x)")
	m := &Match{
		Arena:    a,
		Formulas: map[string]logic.FormulaID{},
		Terms:    logic.Subst{},
		Consts:   []logic.TermID{a.MkConst("a"), a.MkConst("b")},
	}
	if matchAll(t, r, rule, m, fact) == nil {
		t.Fatal("universal did not match")
	}
	out := Conclude(r.PatternArena(), rule, m)
	if len(out) != 2 {
		t.Fatalf("got %d instances, want 2", len(out))
	}
	wantA := mustParse(t, a, "p(a)")
	wantB := mustParse(t, a, "p(b)")
	if !a.Equal(out[0], wantA) || !a.Equal(out[1], wantB) {
		t.Fatalf("instances %s, %s", a.Canonical(out[0]), a.Canonical(out[1]))
	}
}

func TestUniversalInstantiationSkipsNonUniversals(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "universal_instantiation")

	fact := mustParse(t, a, "p(a)")
	m := &Match{
		Arena:    a,
		Formulas: map[string]logic.FormulaID{},
		Terms:    logic.Subst{},
		Consts:   []logic.TermID{a.MkConst("a")},
	}
	if matchAll(t, r, rule, m, fact) == nil {
		t.Fatal("bare metavariable premise must match any fact")
	}
	if out := Conclude(r.PatternArena(), rule, m); out != nil {
		t.Fatalf("non-universal produced %d instances", len(out))
	}
}

func TestUniversalModusPonensUnifies(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "universal_modus_ponens")

	univ := mustParse(t, a, "forall x. (human(x) -> mortal(x))")
	fact := mustParse(t, a, "human(socrates)")
	m := matchAll(t, r, rule, &Match{Arena: a, Formulas: map[string]logic.FormulaID{}, Terms: logic.Subst{}}, univ, fact)
	if m == nil {
		t.Fatal("premises did not match")
	}
	out := Conclude(r.PatternArena(), rule, m)
	if len(out) != 1 {
		t.Fatalf("got %d conclusions, want 1", len(out))
	}
	want := mustParse(t, a, "mortal(socrates)")
	if !a.Equal(out[0], want) {
		t.Fatalf("concluded %s, want mortal(socrates)", a.Canonical(out[0]))
	}
}

func TestVacuousQuantifierElimination(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "vacuous_quantifier_elimination")

	vac := mustParse(t, a, "forall x. p(a)")
	m := matchAll(t, r, rule, &Match{Arena: a, Formulas: map[string]logic.FormulaID{}, Terms: logic.Subst{}}, vac)
	if m == nil {
		t.Fatal("vacuous universal did not match")
	}
	out := Conclude(r.PatternArena(), rule, m)
	if len(out) != 1 || !a.Equal(out[0], mustParse(t, a, "p(a)")) {
		t.Fatalf("vacuous elimination produced %v", out)
	}

	used := mustParse(t, a, "forall x. p(x)")
	m2 := matchAll(t, r, rule, &Match{Arena: a, Formulas: map[string]logic.FormulaID{}, Terms: logic.Subst{}}, used)
	if m2 == nil {
		t.Fatal("universal did not match")
	}
	if out := Conclude(r.PatternArena(), rule, m2); out != nil {
		t.Fatal("binder in use was eliminated")
	}
}

func TestExistentialGeneralizationIsGoalDirected(t *testing.T) {
	r := NewRegistry()
	a := logic.NewArena()
	rule := lookup(t, r, "existential_generalization")

	fact := mustParse(t, a, "p(a)")
	goal := mustParse(t, a, "exists x. p(x)")
	m := &Match{
		Arena:    a,
		Formulas: map[string]logic.FormulaID{},
		Terms:    logic.Subst{},
		Consts:   []logic.TermID{a.MkConst("a")},
		Goal:     goal,
	}
	if matchAll(t, r, rule, m, fact) == nil {
		t.Fatal("fact did not match")
	}
	out := Conclude(r.PatternArena(), rule, m)
	if len(out) != 1 || out[0] != goal {
		t.Fatalf("generalization produced %v, want the goal", out)
	}
}
