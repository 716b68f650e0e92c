package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noesis/internal/analysis"
	"noesis/internal/logic"
	"noesis/internal/proof"
	"noesis/internal/rules"
	"noesis/internal/syntax"
)

func mustParse(t *testing.T, a *logic.Arena, src string) logic.FormulaID {
	t.Helper()
	f, err := syntax.ParseNative(a, src)
	require.NoError(t, err, "parse %q", src)
	return f
}

func TestCapabilitySupports(t *testing.T) {
	smt := NewSMT("").Capabilities()
	a := logic.NewArena()

	arith := analysis.Analyze(a, mustParse(t, a, "(x + 1 > x)"))
	assert.True(t, smt.Supports(arith))

	modal := analysis.Analyze(a, mustParse(t, a, "[]p(a)"))
	assert.False(t, smt.Supports(modal))
	assert.True(t, NewTableaux("").Capabilities().Supports(modal))

	cognitive := analysis.Analyze(a, mustParse(t, a, "Knows[alice](raining)"))
	assert.False(t, NewTableaux("").Capabilities().Supports(cognitive))
	assert.True(t, NewNeural(nil, 0).Capabilities().Supports(cognitive))
}

func TestSMTTranslateArithmetic(t *testing.T) {
	a := logic.NewArena()
	goal := mustParse(t, a, "(x + 1 > x)")

	input, err := NewSMT("").Translate(a, goal, nil)
	require.NoError(t, err)

	assert.NotContains(t, input, "declare-sort", "arithmetic problems use Int")
	assert.Contains(t, input, "(assert (not (forall ((v!0 Int)) (> (+ v!0 1) v!0))))")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(input), "(check-sat)"))
}

func TestSMTTranslateUninterpreted(t *testing.T) {
	a := logic.NewArena()
	goal := mustParse(t, a, "mortal(socrates)")
	axioms := []logic.FormulaID{
		mustParse(t, a, "forall x. (human(x) -> mortal(x))"),
		mustParse(t, a, "human(socrates)"),
	}

	input, err := NewSMT("").Translate(a, goal, axioms)
	require.NoError(t, err)

	assert.Contains(t, input, "(declare-sort U 0)")
	assert.Contains(t, input, "(declare-const socrates U)")
	assert.Contains(t, input, "(declare-fun human (U) Bool)")
	assert.Contains(t, input, "(assert (forall ((v!0 U)) (=> (human v!0) (mortal v!0))))")
	assert.Contains(t, input, "(assert (not (mortal socrates)))")
}

func TestSMTTranslateRejectsModal(t *testing.T) {
	a := logic.NewArena()
	_, err := NewSMT("").Translate(a, mustParse(t, a, "[]p(a)"), nil)

	var terr *syntax.TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "smtlib2", terr.Format)
}

func TestSMTParseResult(t *testing.T) {
	s := NewSMT("")
	tests := []struct {
		raw  string
		want proof.Status
	}{
		{"unsat\n", proof.StatusProved},
		{"sat\n(model ...)\n", proof.StatusDisproved},
		{"unknown\n", proof.StatusUnknown},
		{"timeout\n", proof.StatusTimeout},
		{"(error \"line 3: unexpected token\")\n", proof.StatusError},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.want, s.ParseResult(tt.raw).Status)
		})
	}
}

func TestTableauxTranslate(t *testing.T) {
	a := logic.NewArena()
	goal := mustParse(t, a, "Always(Eventually(p(x)))")

	input, err := NewTableaux("").Translate(a, goal, nil)
	require.NoError(t, err)
	assert.Equal(t, "conjecture: []<>p_x\n", input)
}

func TestTableauxLowersDeontic(t *testing.T) {
	a := logic.NewArena()
	goal := mustParse(t, a, "O[agent1](pay(agent1))")

	input, err := NewTableaux("").Translate(a, goal, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(input, "conjecture: []"), "obligation should lower to necessity: %q", input)

	forbidden := mustParse(t, a, "F[agent1](lie(agent1))")
	input, err = NewTableaux("").Translate(a, forbidden, nil)
	require.NoError(t, err)
	assert.Contains(t, input, "[]~")
}

func TestTableauxParseResult(t *testing.T) {
	tab := NewTableaux("")
	assert.Equal(t, proof.StatusProved, tab.ParseResult("result: unsatisfiable\n").Status)
	assert.Equal(t, proof.StatusDisproved, tab.ParseResult("satisfiable, countermodel with 3 worlds\n").Status)
	assert.Equal(t, proof.StatusUnknown, tab.ParseResult("open branch limit reached\n").Status)
}

func TestInteractiveTranslate(t *testing.T) {
	a := logic.NewArena()
	goal := mustParse(t, a, "q(a)")
	axioms := []logic.FormulaID{mustParse(t, a, "p(a)"), mustParse(t, a, "(p(a) -> q(a))")}

	t.Run("lean", func(t *testing.T) {
		input, err := NewLean("").Translate(a, goal, axioms)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(input, "theorem goal : "))
		assert.Contains(t, input, "((p a) → (((p a) → (q a)) → (q a)))")
	})
	t.Run("coq", func(t *testing.T) {
		input, err := NewCoq("").Translate(a, goal, axioms)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(input, "Theorem goal : "))
		assert.Contains(t, input, "Qed.")
	})
}

func TestInteractiveParseResult(t *testing.T) {
	lean := NewLean("")
	assert.Equal(t, proof.StatusProved, lean.ParseResult("").Status)
	assert.Equal(t, proof.StatusUnknown, lean.ParseResult("goal.lean:1:30: error: unsolved goals").Status)
}

type fakeCompleter struct {
	reply string
	err   error
	asked []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.asked = append(f.asked, user)
	return f.reply, f.err
}

func TestNeuralParseResult(t *testing.T) {
	n := NewNeural(nil, 0.75)
	tests := []struct {
		name string
		raw  string
		want proof.Status
	}{
		{"plain json", `{"status":"proved","confidence":0.9,"rationale":"direct"}`, proof.StatusProved},
		{"fenced block", "Sure!\n```json\n{\"status\":\"disproved\",\"confidence\":0.8}\n```\n", proof.StatusDisproved},
		{"embedded object", `The answer: {"status":"proved","confidence":0.95} as shown.`, proof.StatusProved},
		{"below threshold", `{"status":"proved","confidence":0.4}`, proof.StatusUnknown},
		{"garbage", "I think it is probably true.", proof.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.ParseResult(tt.raw).Status)
		})
	}
}

func TestNeuralProvePipeline(t *testing.T) {
	fake := &fakeCompleter{reply: `{"status":"proved","confidence":0.92,"rationale":"axiom restates goal"}`}
	n := NewNeural(fake, 0.75)
	a := logic.NewArena()

	res := Prove(context.Background(), n, a, mustParse(t, a, "p(a)"), []logic.FormulaID{mustParse(t, a, "p(a)")}, time.Second)
	require.Equal(t, proof.StatusProved, res.Status)
	assert.Equal(t, "neural", res.Method)
	require.Len(t, fake.asked, 1)
	assert.Contains(t, fake.asked[0], "Goal:\n  p(a)")
}

func TestNeuralCompleterError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("quota exceeded")}
	n := NewNeural(fake, 0.75)
	a := logic.NewArena()

	res := Prove(context.Background(), n, a, mustParse(t, a, "p(a)"), nil, time.Second)
	assert.Equal(t, proof.StatusError, res.Status)
	assert.Contains(t, res.Message, "quota exceeded")
}

func TestCECDelegate(t *testing.T) {
	cec := NewCEC(rules.NewRegistry())
	a := logic.NewArena()
	goal := mustParse(t, a, "Believes[alice](raining)")
	axioms := []logic.FormulaID{mustParse(t, a, "Knows[alice](raining)")}

	res := Prove(context.Background(), cec, a, goal, axioms, time.Second)
	require.Equal(t, proof.StatusProved, res.Status, "message: %s", res.Message)
	assert.Equal(t, "cec", res.Method)
	require.NotEmpty(t, res.Steps)
	assert.Equal(t, "knowledge_to_belief", res.Steps[0].RuleName)
}

func TestDatalogTranslate(t *testing.T) {
	d := NewDatalog()
	a := logic.NewArena()
	goal := mustParse(t, a, "ancestor(alice, carol)")
	axioms := []logic.FormulaID{
		mustParse(t, a, "parent(alice, bob)"),
		mustParse(t, a, "parent(bob, carol)"),
		mustParse(t, a, "forall x y. (parent(x, y) -> ancestor(x, y))"),
		mustParse(t, a, "forall x y z. ((parent(x, y) & ancestor(y, z)) -> ancestor(x, z))"),
	}

	input, err := d.Translate(a, goal, axioms)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(input, "# query: ancestor(/alice, /carol)\n"))
	assert.Contains(t, input, "parent(/alice, /bob).")
	assert.Contains(t, input, ":- ")
}

func TestDatalogEndToEnd(t *testing.T) {
	d := NewDatalog()
	a := logic.NewArena()
	goal := mustParse(t, a, "ancestor(alice, carol)")
	axioms := []logic.FormulaID{
		mustParse(t, a, "parent(alice, bob)"),
		mustParse(t, a, "parent(bob, carol)"),
		mustParse(t, a, "forall x y. (parent(x, y) -> ancestor(x, y))"),
		mustParse(t, a, "forall x y z. ((parent(x, y) & ancestor(y, z)) -> ancestor(x, z))"),
	}

	res := Prove(context.Background(), d, a, goal, axioms, 5*time.Second)
	require.Equal(t, proof.StatusProved, res.Status, "message: %s", res.Message)

	missing := mustParse(t, a, "ancestor(carol, alice)")
	res = Prove(context.Background(), d, a, missing, axioms, 5*time.Second)
	assert.Equal(t, proof.StatusUnknown, res.Status, "underivable goal is open, not disproved")
}

func TestDatalogRejectsNonHorn(t *testing.T) {
	d := NewDatalog()
	a := logic.NewArena()

	t.Run("non-ground goal", func(t *testing.T) {
		_, err := d.Translate(a, mustParse(t, a, "ancestor(x, carol)"), nil)
		var terr *syntax.TranslationError
		require.ErrorAs(t, err, &terr)
	})
	t.Run("disjunctive axiom", func(t *testing.T) {
		_, err := d.Translate(a, mustParse(t, a, "p(a)"), []logic.FormulaID{mustParse(t, a, "(p(a) | q(a))")})
		var terr *syntax.TranslationError
		require.ErrorAs(t, err, &terr)
	})
	t.Run("existential axiom", func(t *testing.T) {
		_, err := d.Translate(a, mustParse(t, a, "p(a)"), []logic.FormulaID{mustParse(t, a, "exists x. p(x)")})
		var terr *syntax.TranslationError
		require.ErrorAs(t, err, &terr)
	})
}

func TestExecMissingBinary(t *testing.T) {
	r := runner{bridge: "smt-test", binary: "definitely-not-a-prover-binary"}
	_, err := r.run(context.Background(), "", time.Second)

	var berr *Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "smt-test", berr.Bridge)
}
