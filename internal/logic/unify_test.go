package logic

import "testing"

func TestUnifyTerms(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	y := a.MkFreeVar("y")
	c := a.MkConst("c")
	d := a.MkConst("d")

	t1 := a.MkApp("f", x, c)
	t2 := a.MkApp("f", d, y)

	s, ok := a.UnifyTerms(t1, t2, nil)
	if !ok {
		t.Fatalf("UnifyTerms() failed")
	}
	if a.ApplyTermSubst(t1, s) != a.ApplyTermSubst(t2, s) {
		t.Fatalf("substitution does not equalize the terms")
	}
	if a.Resolve(x, s) != d {
		t.Fatalf("x bound to %s, want d", a.TermString(a.Resolve(x, s)))
	}
}

func TestUnifyOccursCheck(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	fx := a.MkApp("f", x)

	if _, ok := a.UnifyTerms(x, fx, nil); ok {
		t.Fatalf("occurs check failed to reject x = f(x)")
	}
}

func TestUnifyConstantClash(t *testing.T) {
	a := NewArena()
	if _, ok := a.UnifyTerms(a.MkConst("c"), a.MkConst("d"), nil); ok {
		t.Fatalf("distinct constants unified")
	}
	if _, ok := a.UnifyTerms(a.MkApp("f", a.MkConst("c")), a.MkApp("g", a.MkConst("c")), nil); ok {
		t.Fatalf("distinct function symbols unified")
	}
}

func TestUnifyBoundVariables(t *testing.T) {
	a := NewArena()
	bx := a.MkVar("x", 0)
	by := a.MkVar("y", 0)
	bz := a.MkVar("z", 1)

	if _, ok := a.UnifyTerms(bx, by, nil); !ok {
		t.Fatalf("bound variables with equal indices must unify")
	}
	if _, ok := a.UnifyTerms(bx, bz, nil); ok {
		t.Fatalf("bound variables with different indices unified")
	}
}

func TestUnifyAtoms(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")

	p1 := a.MkAtom("p", x, a.MkConst("c"))
	p2 := a.MkAtom("p", a.MkConst("d"), a.MkConst("c"))

	s, ok := a.UnifyAtoms(p1, p2, nil)
	if !ok {
		t.Fatalf("UnifyAtoms() failed")
	}
	if a.ApplySubst(p1, s) != p2 {
		t.Fatalf("substituted atom differs: %s", a.String(a.ApplySubst(p1, s)))
	}

	q := a.MkAtom("q", x)
	if _, ok := a.UnifyAtoms(p1, q, nil); ok {
		t.Fatalf("atoms with different predicates unified")
	}
}

func TestUnifyDoesNotMutateInput(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	base := Subst{"y": a.MkConst("c")}

	_, ok := a.UnifyTerms(x, a.MkConst("d"), base)
	if !ok {
		t.Fatalf("UnifyTerms() failed")
	}
	if len(base) != 1 {
		t.Fatalf("input substitution mutated: %v", base)
	}
}

func TestUnifySharedVariableChain(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	y := a.MkFreeVar("y")

	// x = y, then y = c: resolving x must reach c.
	s, ok := a.UnifyTerms(x, y, nil)
	if !ok {
		t.Fatalf("var-var unification failed")
	}
	s, ok = a.UnifyTerms(y, a.MkConst("c"), s)
	if !ok {
		t.Fatalf("var-const unification failed")
	}
	if got := a.TermString(a.Resolve(x, s)); got != "c" {
		t.Fatalf("Resolve(x) = %s, want c", got)
	}
}
