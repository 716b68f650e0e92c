package logic

import "testing"

func TestInterning(t *testing.T) {
	a := NewArena()

	c1 := a.MkConst("socrates")
	c2 := a.MkConst("socrates")
	if c1 != c2 {
		t.Fatalf("MkConst interning: got %d and %d", c1, c2)
	}

	f1 := a.MkAtom("mortal", c1)
	f2 := a.MkAtom("mortal", c2)
	if f1 != f2 {
		t.Fatalf("MkAtom interning: got %d and %d", f1, f2)
	}

	f3 := a.MkAtom("mortal", a.MkConst("plato"))
	if f3 == f1 {
		t.Fatalf("distinct atoms interned to the same ID")
	}

	and1 := a.MkAnd(f1, f3)
	and2 := a.MkAnd(f1, f3)
	if and1 != and2 {
		t.Fatalf("MkAnd interning: got %d and %d", and1, and2)
	}
}

func TestArenaAccessors(t *testing.T) {
	a := NewArena()
	x := a.MkFreeVar("x")
	app := a.MkApp("f", x, a.MkConst("c"))

	term := a.Term(app)
	if term.Kind != TermApp || term.Name != "f" || len(term.Args) != 2 {
		t.Fatalf("Term(app) = %+v", term)
	}

	atom := a.MkAtom("p", app)
	node := a.Formula(atom)
	if node.Kind != KindAtom || node.Sym != "p" {
		t.Fatalf("Formula(atom) = %+v", node)
	}

	if a.NumTerms() != 3 {
		t.Fatalf("NumTerms() = %d, want 3", a.NumTerms())
	}
}

func TestImportAcrossArenas(t *testing.T) {
	src := NewArena()
	x := src.MkVar("x", 0)
	body := src.MkImplies(src.MkAtom("p", x), src.MkAtom("q", x))
	f := src.MkQuantifier(Forall, "x", body)

	dst := NewArena()
	g := dst.Import(src, f)

	if src.Canonical(f) != dst.Canonical(g) {
		t.Fatalf("Import changed canonical form:\n src=%s\n dst=%s", src.Canonical(f), dst.Canonical(g))
	}
	if src.Hash(f) != dst.Hash(g) {
		t.Fatalf("Import changed content hash")
	}
}

func TestImportDeontic(t *testing.T) {
	src := NewArena()
	agent := src.MkConst("agent1")
	pay := src.MkAtom("pay", agent, src.MkConst("100"))
	f := src.MkDeontic(Obligatory, agent, pay)

	dst := NewArena()
	g := dst.Import(src, f)

	node := dst.Formula(g)
	if node.Kind != KindDeontic || node.Deontic() != Obligatory {
		t.Fatalf("imported node = %+v", node)
	}
	if dst.TermString(node.Agent) != "agent1" {
		t.Fatalf("imported agent = %s", dst.TermString(node.Agent))
	}
}

func TestWalk(t *testing.T) {
	a := NewArena()
	p := a.MkAtom("p")
	q := a.MkAtom("q")
	f := a.MkAnd(a.MkNot(p), q)

	var count int
	a.Walk(f, func(FormulaID, Formula) bool {
		count++
		return true
	})
	if count != 4 {
		t.Fatalf("Walk visited %d nodes, want 4", count)
	}

	count = 0
	a.Walk(f, func(_ FormulaID, node Formula) bool {
		count++
		return node.Kind != KindNot
	})
	if count != 3 {
		t.Fatalf("pruned Walk visited %d nodes, want 3", count)
	}
}

func TestFreshNamesUnparseable(t *testing.T) {
	a := NewArena()
	v := a.FreshVar("u")
	c := a.FreshConst("sk")
	if a.Term(v).Name[0] != '$' || a.Term(c).Name[0] != '$' {
		t.Fatalf("fresh names must carry the '$' prefix: %q %q", a.Term(v).Name, a.Term(c).Name)
	}
	if a.Term(v).Name == a.Term(c).Name {
		t.Fatalf("fresh names collided")
	}
}

func TestSignatureTable(t *testing.T) {
	st := NewSignatureTable()
	if err := st.CheckPred("p", 2); err != nil {
		t.Fatalf("first CheckPred error = %v", err)
	}
	if err := st.CheckPred("p", 2); err != nil {
		t.Fatalf("repeat CheckPred error = %v", err)
	}
	err := st.CheckPred("p", 3)
	if err == nil {
		t.Fatalf("arity conflict not detected")
	}
	sigErr, ok := err.(*SignatureError)
	if !ok {
		t.Fatalf("error type = %T, want *SignatureError", err)
	}
	if sigErr.Want != 2 || sigErr.Got != 3 || !sigErr.Predicate {
		t.Fatalf("SignatureError = %+v", sigErr)
	}

	if err := st.CheckFunc("f", 1); err != nil {
		t.Fatalf("CheckFunc error = %v", err)
	}
	if n, ok := st.FuncArity("f"); !ok || n != 1 {
		t.Fatalf("FuncArity(f) = %d, %v", n, ok)
	}
}
