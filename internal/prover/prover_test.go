package prover

import (
	"context"
	"testing"
	"time"

	"noesis/internal/kb"
	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/rules"
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

func prove(t *testing.T, cfg Config, goal string, axioms ...string) proof.Result {
	t.Helper()
	a := logic.NewArena()
	ids := make([]logic.FormulaID, len(axioms))
	for i, src := range axioms {
		ids[i] = mustParse(t, a, src)
	}
	snap := kb.NewSnapshot(a, ids...)
	p := New(rules.NewRegistry(), nil)
	return p.Prove(context.Background(), snap, mustParse(t, a, goal), cfg)
}

func TestProveModusPonensChain(t *testing.T) {
	res := prove(t, DefaultConfig(), "r(a)",
		"p(a)",
		"(p(a) -> q(a))",
		"(q(a) -> r(a))")
	if res.Status != proof.StatusProved {
		t.Fatalf("status = %s, want proved: %s", res.Status, res.Message)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("got %d steps, want 2: %+v", len(res.Steps), res.Steps)
	}
	if res.Steps[len(res.Steps)-1].Conclusion != "r(a)" {
		t.Fatalf("final step concludes %q", res.Steps[len(res.Steps)-1].Conclusion)
	}
}

func TestProveGoalIsAxiom(t *testing.T) {
	res := prove(t, DefaultConfig(), "p(a)", "p(a)")
	if res.Status != proof.StatusProved {
		t.Fatalf("status = %s, want proved", res.Status)
	}
	if len(res.Steps) != 0 {
		t.Fatalf("axiom goal needs no steps, got %d", len(res.Steps))
	}
}

func TestProveDisproved(t *testing.T) {
	res := prove(t, DefaultConfig(), "q(a)",
		"p(a)",
		"(p(a) -> ~q(a))")
	if res.Status != proof.StatusDisproved {
		t.Fatalf("status = %s, want disproved", res.Status)
	}
}

func TestProveUniversalInstantiation(t *testing.T) {
	res := prove(t, DefaultConfig(), "mortal(socrates)",
		"forall x. (human(x) -> mortal(x))",
		"human(socrates)")
	if res.Status != proof.StatusProved {
		t.Fatalf("status = %s, want proved: %s", res.Status, res.Message)
	}
}

func TestProveSyllogismChainThroughQuantifiers(t *testing.T) {
	res := prove(t, DefaultConfig(), "exists x. mortal(x)",
		"forall x. (human(x) -> mortal(x))",
		"human(socrates)")
	if res.Status != proof.StatusProved {
		t.Fatalf("status = %s, want proved: %s", res.Status, res.Message)
	}
}

func TestProveCognitive(t *testing.T) {
	res := prove(t, DefaultConfig(), "Believes[alice](raining)",
		"Knows[alice](raining)")
	if res.Status != proof.StatusProved {
		t.Fatalf("status = %s, want proved: %s", res.Status, res.Message)
	}
	if len(res.Steps) != 1 || res.Steps[0].RuleName != "knowledge_to_belief" {
		t.Fatalf("unexpected steps: %+v", res.Steps)
	}
}

func TestProveDeonticDetachment(t *testing.T) {
	res := prove(t, DefaultConfig(), "O[agent1](pay(agent1))",
		"signed(agent1)",
		"(signed(agent1) -> O[agent1](pay(agent1)))")
	if res.Status != proof.StatusProved {
		t.Fatalf("status = %s, want proved: %s", res.Status, res.Message)
	}
}

func TestProveUnknownOnUnderivableGoal(t *testing.T) {
	res := prove(t, DefaultConfig(), "q(b)", "p(a)")
	if res.Status != proof.StatusUnknown {
		t.Fatalf("status = %s, want unknown", res.Status)
	}
}

func TestProveTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = time.Nanosecond
	res := prove(t, cfg, "q(a)",
		"p(a)",
		"(p(a) -> q(a))")
	if res.Status != proof.StatusTimeout {
		t.Fatalf("status = %s, want timeout", res.Status)
	}
}

func TestProveContextCancellation(t *testing.T) {
	a := logic.NewArena()
	snap := kb.NewSnapshot(a, mustParse(t, a, "p(a)"))
	p := New(rules.NewRegistry(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.Prove(ctx, snap, mustParse(t, a, "q(a)"), DefaultConfig())
	if res.Status != proof.StatusTimeout {
		t.Fatalf("status = %s, want timeout on cancelled context", res.Status)
	}
}

func TestProveCategoryRestriction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Categories = []rules.Category{rules.CategoryCognitive}
	cfg.DisableResolution = true
	res := prove(t, cfg, "q(a)",
		"p(a)",
		"(p(a) -> q(a))")
	if res.Status != proof.StatusUnknown {
		t.Fatalf("status = %s, want unknown with propositional rules off", res.Status)
	}
}

func TestProveStepsReplayable(t *testing.T) {
	res := prove(t, DefaultConfig(), "(p(a) & q(a))",
		"p(a)",
		"q(a)")
	if res.Status != proof.StatusProved {
		t.Fatalf("status = %s, want proved: %s", res.Status, res.Message)
	}
	// Every premise of every step must be an axiom or a prior conclusion.
	known := map[string]bool{"p(a)": true, "q(a)": true}
	for _, step := range res.Steps {
		for _, prem := range step.Premises {
			if !known[prem] {
				t.Fatalf("step %q uses unknown premise %q", step.RuleName, prem)
			}
		}
		known[step.Conclusion] = true
	}
}

func TestResolveFallback(t *testing.T) {
	// Excluded middle holds from an empty KB. Forward chaining has
	// nothing to chain from; only the refutation finds it.
	res := prove(t, DefaultConfig(), "(p(a) | ~p(a))")
	if res.Status != proof.StatusProved {
		t.Fatalf("status = %s, want proved: %s", res.Status, res.Message)
	}
	if res.Message == "" {
		t.Fatalf("refutation result should say how it was found")
	}
}

func TestResolveDisprovesRefutedGoal(t *testing.T) {
	a := logic.NewArena()
	snap := kb.NewSnapshot(a,
		mustParse(t, a, "p(a)"),
		mustParse(t, a, "forall x. (p(x) -> ~q(x))"))
	p := New(rules.NewRegistry(), nil)
	goal := mustParse(t, a, "q(a)")

	res, ok := p.resolve(context.Background(), snap, goal, time.Now().Add(time.Second))
	if !ok {
		t.Fatal("resolution declined a first-order problem")
	}
	if res.Status != proof.StatusDisproved {
		t.Fatalf("status = %s, want disproved: %s", res.Status, res.Message)
	}
}

func TestResolveSkipsModalFragment(t *testing.T) {
	a := logic.NewArena()
	snap := kb.NewSnapshot(a, mustParse(t, a, "[]p(a)"))
	p := New(rules.NewRegistry(), nil)
	goal := mustParse(t, a, "<>q(a)")

	if _, ok := p.resolve(context.Background(), snap, goal, time.Now().Add(time.Second)); ok {
		t.Fatalf("resolution accepted a modal problem")
	}
}

func TestClausifyConjunctiveAxiom(t *testing.T) {
	a := logic.NewArena()
	c := &clausifier{arena: a, maxClauses: defaultClauseCap}
	f := mustParse(t, a, "forall x. (p(x) -> (q(x) & r(x)))")

	clauses := c.clausify(f, false)
	if len(clauses) != 2 {
		t.Fatalf("got %d clauses, want 2", len(clauses))
	}
	for _, cl := range clauses {
		if len(cl) != 2 {
			t.Fatalf("clause width %d, want 2", len(cl))
		}
	}
}

func TestClausifySkolemizesExistential(t *testing.T) {
	a := logic.NewArena()
	c := &clausifier{arena: a, maxClauses: defaultClauseCap}
	f := mustParse(t, a, "forall x. exists y. likes(x, y)")

	clauses := c.clausify(f, false)
	if len(clauses) != 1 || len(clauses[0]) != 1 {
		t.Fatalf("unexpected clause set: %v", clauses)
	}
	atom := a.Formula(clauses[0][0].atom)
	if atom.Sym != "likes" || len(atom.Args) != 2 {
		t.Fatalf("unexpected atom %s", a.String(clauses[0][0].atom))
	}
	witness := a.Term(atom.Args[1])
	if witness.Kind != logic.TermApp || len(witness.Args) != 1 {
		t.Fatalf("witness is not a unary Skolem term: %s", a.TermString(atom.Args[1]))
	}
}
