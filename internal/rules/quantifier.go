package rules

import "noesis/internal/logic"

// registerQuantifier installs the first-order quantifier rules. Most of
// them manipulate binders directly, which templates cannot express, so
// this category leans on builders.
func (r *Registry) registerQuantifier() {
	c := CategoryQuantifier

	// Universal instantiation enumerates the search's constant pool.
	r.addBuilt("universal_instantiation", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		q := m.Formulas["?p"]
		if m.Arena.Formula(q).Kind != logic.KindQuantifier || m.Arena.Formula(q).Quant() != logic.Forall {
			return nil
		}
		var out []logic.FormulaID
		for _, ct := range m.Consts {
			if inst, ok := m.Arena.Instantiate(q, ct); ok {
				out = append(out, inst)
			}
		}
		return out
	})

	// Existential instantiation introduces a fresh witness constant.
	r.addBuilt("existential_instantiation", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		q := m.Formulas["?p"]
		node := m.Arena.Formula(q)
		if node.Kind != logic.KindQuantifier || node.Quant() != logic.Exists {
			return nil
		}
		witness := m.Arena.FreshConst("w")
		if inst, ok := m.Arena.Instantiate(q, witness); ok {
			return []logic.FormulaID{inst}
		}
		return nil
	})

	// Existential generalization is goal-directed: derive an Exists goal
	// from any fact that instantiates its body.
	r.addBuilt("existential_generalization", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		g := m.Arena.Formula(m.Goal)
		if g.Kind != logic.KindQuantifier || g.Quant() != logic.Exists {
			return nil
		}
		fact := m.Formulas["?p"]
		for _, ct := range m.Consts {
			inst, ok := m.Arena.Instantiate(m.Goal, ct)
			if ok && m.Arena.Equal(inst, fact) {
				return []logic.FormulaID{m.Goal}
			}
		}
		return nil
	})

	// Universal modus ponens resolves forall x. (A -> B) against a
	// matching atomic fact in one step, unifying the instantiated
	// antecedent with the fact.
	r.addBuilt("universal_modus_ponens", c, []string{"?p", "?q"}, func(m *Match) []logic.FormulaID {
		q := m.Formulas["?p"]
		node := m.Arena.Formula(q)
		if node.Kind != logic.KindQuantifier || node.Quant() != logic.Forall {
			return nil
		}
		fresh := m.Arena.FreshVar("u")
		inst, ok := m.Arena.Instantiate(q, fresh)
		if !ok {
			return nil
		}
		impl := m.Arena.Formula(inst)
		if impl.Kind != logic.KindImplies {
			return nil
		}
		s, ok := m.Arena.UnifyAtoms(impl.Subs[0], m.Formulas["?q"], logic.Subst{})
		if !ok {
			return nil
		}
		conclusion := m.Arena.ApplySubst(impl.Subs[1], s)
		// The witness must have been bound; a conclusion still carrying
		// the fresh variable is no fact.
		freshName := m.Arena.Term(fresh).Name
		for _, v := range m.Arena.FreeVars(conclusion) {
			if v == freshName {
				return nil
			}
		}
		return []logic.FormulaID{conclusion}
	})

	r.add("quantifier_negation_forall", c, []string{"~(forall x. ?p)"}, "exists x. ~?p")
	r.add("quantifier_negation_exists", c, []string{"~(exists x. ?p)"}, "forall x. ~?p")
	r.add("negation_quantifier_forall", c, []string{"forall x. ~?p"}, "~(exists x. ?p)")
	r.add("negation_quantifier_exists", c, []string{"exists x. ~?p"}, "~(forall x. ?p)")

	// Nonempty-domain assumption.
	r.add("universal_to_existential", c, []string{"forall x. ?p"}, "exists x. ?p")

	r.add("universal_conjunction_split", c,
		[]string{"forall x. (?p & ?q)"}, "(forall x. ?p) & (forall x. ?q)")
	r.add("universal_conjunction_merge", c,
		[]string{"(forall x. ?p) & (forall x. ?q)"}, "forall x. (?p & ?q)")
	r.add("existential_disjunction_split", c,
		[]string{"exists x. (?p | ?q)"}, "(exists x. ?p) | (exists x. ?q)")

	// Vacuous binders drop once the body ignores them.
	r.addBuilt("vacuous_quantifier_elimination", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		q := m.Formulas["?p"]
		node := m.Arena.Formula(q)
		if node.Kind != logic.KindQuantifier || usesBinder(m.Arena, node.Subs[0], 0) {
			return nil
		}
		dummy := m.Arena.MkConst("c0")
		if inst, ok := m.Arena.Instantiate(q, dummy); ok {
			return []logic.FormulaID{inst}
		}
		return nil
	})
}

// usesBinder reports whether the de Bruijn index `target` (relative to
// the formula root) occurs in f.
func usesBinder(a *logic.Arena, f logic.FormulaID, target int) bool {
	return usesBinderFormula(a, f, target)
}

func usesBinderFormula(a *logic.Arena, id logic.FormulaID, target int) bool {
	f := a.Formula(id)
	if f.Kind == logic.KindQuantifier {
		return usesBinderFormula(a, f.Subs[0], target+1)
	}
	if f.Agent != logic.NoTerm && usesBinderTerm(a, f.Agent, target) {
		return true
	}
	for _, arg := range f.Args {
		if usesBinderTerm(a, arg, target) {
			return true
		}
	}
	for _, sub := range f.Subs {
		if usesBinderFormula(a, sub, target) {
			return true
		}
	}
	return false
}

func usesBinderTerm(a *logic.Arena, id logic.TermID, target int) bool {
	t := a.Term(id)
	switch t.Kind {
	case logic.TermVar:
		return t.Index == target
	case logic.TermApp:
		for _, arg := range t.Args {
			if usesBinderTerm(a, arg, target) {
				return true
			}
		}
	}
	return false
}
