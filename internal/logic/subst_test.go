package logic

import "testing"

func TestApplySubst(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	f := a.MkImplies(a.MkAtom("p", x), a.MkAtom("q", x))

	s := Subst{"x": a.MkConst("c")}
	g := a.ApplySubst(f, s)

	if got := a.String(g); got != "(p(c) -> q(c))" {
		t.Fatalf("ApplySubst result = %s", got)
	}
	// The original formula is untouched.
	if got := a.String(f); got != "(p(x) -> q(x))" {
		t.Fatalf("source formula mutated: %s", got)
	}
}

func TestApplySubstChained(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	y := a.MkFreeVar("y")
	f := a.MkAtom("p", x)

	s := Subst{"x": y, "y": a.MkConst("c")}
	g := a.ApplySubst(f, s)
	if got := a.String(g); got != "p(c)" {
		t.Fatalf("chained substitution result = %s", got)
	}
}

func TestInstantiate(t *testing.T) {
	a := NewArena()
	f := a.MkQuantifier(Forall, "x", a.MkAtom("p", a.MkVar("x", 0)))

	g, ok := a.Instantiate(f, a.MkConst("socrates"))
	if !ok {
		t.Fatalf("Instantiate() failed on a quantifier")
	}
	if got := a.String(g); got != "p(socrates)" {
		t.Fatalf("Instantiate result = %s", got)
	}

	if _, ok := a.Instantiate(g, a.MkConst("c")); ok {
		t.Fatalf("Instantiate() accepted a non-quantifier")
	}
}

func TestInstantiateShiftsOuterIndices(t *testing.T) {
	a := NewArena()
	// forall x. forall y. r(x, y)
	inner := a.MkQuantifier(Forall, "y", a.MkAtom("r", a.MkVar("x", 1), a.MkVar("y", 0)))
	f := a.MkQuantifier(Forall, "x", inner)

	g, ok := a.Instantiate(f, a.MkConst("c"))
	if !ok {
		t.Fatalf("Instantiate() failed")
	}
	if got := a.Canonical(g); got != "(forall v0. r(c, v0))" {
		t.Fatalf("Instantiate result = %s", got)
	}
}

func TestAbstract(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	f := a.MkImplies(a.MkAtom("p", x), a.MkAtom("q", x))

	g := a.Abstract(f, "x", Forall)
	if got := a.Canonical(g); got != "(forall v0. (p(v0) -> q(v0)))" {
		t.Fatalf("Abstract result = %s", got)
	}
	if !a.WellFormed(g) {
		t.Fatalf("Abstract produced an ill-formed formula")
	}
}

func TestAbstractUnderExistingBinder(t *testing.T) {
	a := NewArena()
	// p(x) & exists y. r(x, y) with x free
	x := a.MkFreeVar("x")
	ex := a.MkQuantifier(Exists, "y", a.MkAtom("r", x, a.MkVar("y", 0)))
	f := a.MkAnd(a.MkAtom("p", x), ex)

	g := a.Abstract(f, "x", Forall)
	want := "(forall v0. ((exists v1. r(v0, v1)) & p(v0)))"
	if got := a.Canonical(g); got != want {
		t.Fatalf("Abstract result = %s, want %s", got, want)
	}
}

func TestAbstractTerm(t *testing.T) {
	a := NewArena()
	c := a.MkConst("socrates")
	f := a.MkAtom("mortal", c)

	g := a.AbstractTerm(f, c, "z", Exists)
	if got := a.Canonical(g); got != "(exists v0. mortal(v0))" {
		t.Fatalf("AbstractTerm result = %s", got)
	}
}

func TestFreeVarsAndGround(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	f := a.MkAnd(a.MkAtom("p", x), a.MkAtom("q", a.MkConst("c")))

	vars := a.FreeVars(f)
	if len(vars) != 1 || vars[0] != "x" {
		t.Fatalf("FreeVars() = %v", vars)
	}
	if a.IsGround(f) {
		t.Fatalf("IsGround() = true with a free variable present")
	}

	g := a.Abstract(f, "x", Forall)
	if !a.IsGround(g) {
		t.Fatalf("IsGround() = false after abstraction")
	}

	consts := a.Constants(f)
	if len(consts) != 1 || consts[0] != "c" {
		t.Fatalf("Constants() = %v", consts)
	}
}

func TestWellFormed(t *testing.T) {
	a := NewArena()

	ok := a.MkQuantifier(Forall, "x", a.MkAtom("p", a.MkVar("x", 0)))
	if !a.WellFormed(ok) {
		t.Fatalf("well-formed formula rejected")
	}

	dangling := a.MkAtom("p", a.MkVar("x", 0))
	if a.WellFormed(dangling) {
		t.Fatalf("dangling de Bruijn index accepted")
	}

	meta := a.MkMeta("?p")
	if a.WellFormed(meta) {
		t.Fatalf("metavariable accepted as well-formed")
	}
}
