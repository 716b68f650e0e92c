package logic

// =============================================================================
// FIRST-ORDER UNIFICATION
// =============================================================================

// UnifyTerms finds an extension of s under which t1 and t2 become equal.
// Free variables on either side may be bound; bound (de Bruijn) variables
// unify only with the same index. The occurs check rejects cyclic
// bindings. s is never modified; the extended substitution is returned.
func (a *Arena) UnifyTerms(t1, t2 TermID, s Subst) (Subst, bool) {
	out := s.Clone()
	if !a.unifyTerm(t1, t2, out) {
		return nil, false
	}
	return out, true
}

// UnifyAtoms unifies two atomic formulas argument-wise. Both must share
// the predicate symbol and arity.
func (a *Arena) UnifyAtoms(f1, f2 FormulaID, s Subst) (Subst, bool) {
	n1 := a.Formula(f1)
	n2 := a.Formula(f2)
	if n1.Kind != KindAtom || n2.Kind != KindAtom {
		return nil, false
	}
	if n1.Sym != n2.Sym || len(n1.Args) != len(n2.Args) {
		return nil, false
	}
	out := s.Clone()
	for i := range n1.Args {
		if !a.unifyTerm(n1.Args[i], n2.Args[i], out) {
			return nil, false
		}
	}
	return out, true
}

func (a *Arena) unifyTerm(t1, t2 TermID, s Subst) bool {
	t1 = a.Resolve(t1, s)
	t2 = a.Resolve(t2, s)
	if t1 == t2 {
		return true
	}
	n1 := a.Term(t1)
	n2 := a.Term(t2)

	if n1.Kind == TermVar && n1.Index == FreeIndex {
		if a.occurs(n1.Name, t2, s) {
			return false
		}
		s[n1.Name] = t2
		return true
	}
	if n2.Kind == TermVar && n2.Index == FreeIndex {
		if a.occurs(n2.Name, t1, s) {
			return false
		}
		s[n2.Name] = t1
		return true
	}

	switch {
	case n1.Kind == TermVar && n2.Kind == TermVar:
		// Both bound: equal only with the same index, regardless of the
		// display names.
		return n1.Index == n2.Index
	case n1.Kind == TermConst && n2.Kind == TermConst:
		return n1.Name == n2.Name
	case n1.Kind == TermApp && n2.Kind == TermApp:
		if n1.Name != n2.Name || len(n1.Args) != len(n2.Args) {
			return false
		}
		for i := range n1.Args {
			if !a.unifyTerm(n1.Args[i], n2.Args[i], s) {
				return false
			}
		}
		return true
	}
	return false
}

func (a *Arena) occurs(name string, t TermID, s Subst) bool {
	t = a.Resolve(t, s)
	n := a.Term(t)
	switch n.Kind {
	case TermVar:
		return n.Index == FreeIndex && n.Name == name
	case TermApp:
		for _, arg := range n.Args {
			if a.occurs(name, arg, s) {
				return true
			}
		}
	}
	return false
}
