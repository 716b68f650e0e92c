package syntax

import (
	"errors"
	"strings"
	"testing"

	"noesis/internal/logic"
)

func TestTPTPRoundTripFOL(t *testing.T) {
	srcs := []string{
		"forall x. (human(x) -> mortal(x))",
		"exists x. (p(x) & q(x))",
		"(p(a) | ~q(b))",
		"forall x y. (r(x, y) <-> r(y, x))",
	}
	conv := TPTPConverter{}
	for _, src := range srcs {
		a := logic.NewArena()
		f := parse(t, a, src)
		text, warnings, err := conv.Serialize(a, f)
		if err != nil {
			t.Fatalf("serialize %q: %v", src, err)
		}
		if len(warnings) != 0 {
			t.Fatalf("FOL fragment should be warning-free, got %v", warnings)
		}
		if !strings.HasPrefix(text, "fof(goal, conjecture, ") {
			t.Fatalf("missing fof wrapper: %s", text)
		}
		back, err := conv.Parse(a, text)
		if err != nil {
			t.Fatalf("reparse %q: %v", text, err)
		}
		if a.Hash(f) != a.Hash(back) {
			t.Fatalf("round trip changed %q:\n %s\n %s", src, a.Canonical(f), a.Canonical(back))
		}
	}
}

func TestTPTPEquality(t *testing.T) {
	a := logic.NewArena()
	conv := TPTPConverter{}

	f, err := conv.Parse(a, "a = b")
	if err != nil {
		t.Fatalf("parse equality: %v", err)
	}
	if node := a.Formula(f); node.Kind != logic.KindAtom || node.Sym != "eq" {
		t.Fatalf("= should normalize to eq, got %s", a.String(f))
	}

	g, err := conv.Parse(a, "a != b")
	if err != nil {
		t.Fatalf("parse disequality: %v", err)
	}
	if a.Formula(g).Kind != logic.KindNot {
		t.Fatalf("!= should normalize to negated eq, got %s", a.String(g))
	}
}

func TestTPTPRelationalEncoding(t *testing.T) {
	a := logic.NewArena()
	f := parse(t, a, "Obligatory[agent1](pay(agent1))")

	text, warnings, err := (TPTPConverter{}).Serialize(a, f)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(text, "obligatory(agent1, pay(agent1))") {
		t.Fatalf("deontic operator not relationally encoded: %s", text)
	}
	if len(warnings) == 0 {
		t.Fatalf("lossy encoding must warn")
	}
}

func TestTPTPScopeViolation(t *testing.T) {
	a := logic.NewArena()
	_, err := (TPTPConverter{}).Parse(a, "p(X) & ! [X] : q(X)")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestModalRoundTrip(t *testing.T) {
	a := logic.NewArena()
	conv := ModalConverter{}

	f, err := conv.Parse(a, "[](p -> <>q)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	text, warnings, err := conv.Serialize(a, f)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if text != "[](p -> <>q)" {
		t.Fatalf("serialize = %q", text)
	}
	if len(warnings) != 0 {
		t.Fatalf("propositional modal fragment is exact, got %v", warnings)
	}
}

func TestModalPropositionalizesAtoms(t *testing.T) {
	a := logic.NewArena()
	f := parse(t, a, "Nec(p(a))")

	text, warnings, err := (ModalConverter{}).Serialize(a, f)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if text != "[]p_a" {
		t.Fatalf("serialize = %q", text)
	}
	if len(warnings) == 0 {
		t.Fatalf("propositionalization must warn")
	}
}

func TestModalTemporalFolding(t *testing.T) {
	a := logic.NewArena()
	conv := ModalConverter{}

	f := parse(t, a, "Always(Eventually(p))")
	text, warnings, err := conv.Serialize(a, f)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if text != "[]<>p" {
		t.Fatalf("serialize = %q", text)
	}
	if len(warnings) == 0 {
		t.Fatalf("temporal folding must warn")
	}

	u := parse(t, a, "Until(p, q)")
	_, _, err = conv.Serialize(a, u)
	var terr *TranslationError
	if !errors.As(err, &terr) {
		t.Fatalf("Until has no modal encoding, got %v", err)
	}
}

func TestModalRejectsQuantifiers(t *testing.T) {
	a := logic.NewArena()
	f := parse(t, a, "forall x. p(x)")
	_, _, err := (ModalConverter{}).Serialize(a, f)
	var terr *TranslationError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TranslationError, got %v", err)
	}
}

func TestInteractiveRoundTrip(t *testing.T) {
	srcs := []string{
		"forall x. (p(x) -> q(x))",
		"(p(a) & ~q(b))",
		"exists x. r(x, c)",
	}
	for _, conv := range []InteractiveConverter{NewLeanConverter(), NewCoqConverter()} {
		for _, src := range srcs {
			a := logic.NewArena()
			f := parse(t, a, src)
			text, _, err := conv.Serialize(a, f)
			if err != nil {
				t.Fatalf("%s serialize %q: %v", conv.Name(), src, err)
			}
			back, err := conv.Parse(a, text)
			if err != nil {
				t.Fatalf("%s reparse %q: %v", conv.Name(), text, err)
			}
			if a.Hash(f) != a.Hash(back) {
				t.Fatalf("%s round trip changed %q:\n %s\n %s", conv.Name(), src, a.Canonical(f), a.Canonical(back))
			}
		}
	}
}

func TestInteractiveRejectsModal(t *testing.T) {
	a := logic.NewArena()
	f := parse(t, a, "Nec(p)")
	_, _, err := NewLeanConverter().Serialize(a, f)
	var terr *TranslationError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TranslationError, got %v", err)
	}
}

func TestNLGrammarPath(t *testing.T) {
	a := logic.NewArena()
	f := parse(t, a, "Obligatory[agent1](pay(agent1, 100))")

	text, _, err := (NLConverter{}).Serialize(a, f)
	if err != nil {
		t.Fatalf("gloss: %v", err)
	}
	if text != "Agent1 must pay 100." {
		t.Fatalf("gloss = %q", text)
	}
}

func TestNLTemplateFallback(t *testing.T) {
	a := logic.NewArena()
	// The action's first argument is not the agent, so the grammar path
	// declines and the template renders.
	f := parse(t, a, "Obligatory[agent1](raining)")

	text, _, err := (NLConverter{}).Serialize(a, f)
	if err != nil {
		t.Fatalf("gloss: %v", err)
	}
	if text != "Agent1 is obligated to bring about that raining holds." {
		t.Fatalf("gloss = %q", text)
	}
}

func TestNLNeverErrors(t *testing.T) {
	srcs := []string{
		"forall x. (human(x) -> mortal(x))",
		"Believes[bob](Knows[alice](Nec((p & q))))",
		"Until(waiting(a), served(a))",
		"(x + 1 > x)",
	}
	for _, src := range srcs {
		a := logic.NewArena()
		f := parse(t, a, src)
		if _, _, err := (NLConverter{}).Serialize(a, f); err != nil {
			t.Fatalf("gloss of %q errored: %v", src, err)
		}
	}
}

func TestRegistryConvert(t *testing.T) {
	reg := NewRegistry()
	a := logic.NewArena()

	res, err := reg.Convert(a, "forall x. (human(x) -> mortal(x))", "native", "tptp")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Confidence != 1.0 {
		t.Fatalf("lossless conversion confidence = %f", res.Confidence)
	}

	res, err = reg.Convert(a, "Nec(p(a))", "native", "modal")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Confidence >= 1.0 || len(res.Warnings) == 0 {
		t.Fatalf("lossy conversion should decay confidence, got %f %v", res.Confidence, res.Warnings)
	}

	if _, err := reg.Convert(a, "p", "native", "smalltalk"); err == nil {
		t.Fatalf("unknown target format should error")
	}
}

func TestRegistryFormats(t *testing.T) {
	got := NewRegistry().Formats()
	want := []string{"coq", "lean", "modal", "native", "nl", "tptp"}
	if len(got) != len(want) {
		t.Fatalf("formats = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("formats = %v, want %v", got, want)
		}
	}
}
