package rules

import "noesis/internal/logic"

// registerDeontic installs standard deontic logic plus the
// deontic-cognitive bridge rules of the event calculus. Obligatory,
// Permitted and Forbidden interdefine in the usual square: F a p == O a
// ~p == ~P a p.
func (r *Registry) registerDeontic() {
	c := CategoryDeontic

	// The deontic square.
	r.add("obligation_to_permission", c, []string{"O[?a](?p)"}, "P[?a](?p)")
	r.add("forbidden_to_obligatory_negation", c, []string{"F[?a](?p)"}, "O[?a](~?p)")
	r.add("obligatory_negation_to_forbidden", c, []string{"O[?a](~?p)"}, "F[?a](?p)")
	r.add("forbidden_to_not_permitted", c, []string{"F[?a](?p)"}, "~P[?a](?p)")
	r.add("not_permitted_to_forbidden", c, []string{"~P[?a](?p)"}, "F[?a](?p)")
	r.add("permitted_negation_to_not_obligatory", c, []string{"P[?a](~?p)"}, "~O[?a](?p)")
	r.add("not_obligatory_to_permitted_negation", c, []string{"~O[?a](?p)"}, "P[?a](~?p)")

	// Distribution (the K axiom for O) and detachment.
	r.add("deontic_distribution", c,
		[]string{"O[?a](?p -> ?q)", "O[?a](?p)"}, "O[?a](?q)")
	r.add("deontic_detachment", c,
		[]string{"O[?a](?p)", "?p -> ?q"}, "O[?a](?q)")
	r.add("factual_detachment", c,
		[]string{"?p", "?p -> O[?a](?q)"}, "O[?a](?q)")

	// Conjunction.
	r.add("obligation_conjunction_introduction", c,
		[]string{"O[?a](?p)", "O[?a](?q)"}, "O[?a](?p & ?q)").
		withSide(func(m *Match) bool { return goalWantsConjunction(m) })
	r.add("obligation_simplification_left", c, []string{"O[?a](?p & ?q)"}, "O[?a](?p)")
	r.add("obligation_simplification_right", c, []string{"O[?a](?p & ?q)"}, "O[?a](?q)")
	// Goal-directed permission weakening into a goal disjunction.
	r.addBuilt("permission_disjunction", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		g := m.Arena.Formula(m.Goal)
		if g.Kind != logic.KindDeontic || g.Deontic() != logic.Permitted {
			return nil
		}
		body := m.Arena.Formula(g.Subs[0])
		if body.Kind != logic.KindOr {
			return nil
		}
		fact := m.Arena.Formula(m.Formulas["?p"])
		if fact.Kind != logic.KindDeontic || fact.Deontic() != logic.Permitted || fact.Agent != g.Agent {
			return nil
		}
		if m.Arena.Equal(fact.Subs[0], body.Subs[0]) || m.Arena.Equal(fact.Subs[0], body.Subs[1]) {
			return []logic.FormulaID{m.Goal}
		}
		return nil
	})
	r.add("permission_weakening", c, []string{"P[?a](?p & ?q)"}, "P[?a](?p)")

	// Kant's principle and the D axiom.
	r.add("ought_implies_can", c, []string{"O[?a](?p)"}, "Pos(?p)")
	r.add("deontic_consistency", c, []string{"O[?a](?p)"}, "~O[?a](~?p)")

	// Deontic explosion is goal-directed, like ex falso.
	r.addBuilt("deontic_conflict", c,
		[]string{"O[?a](?p)", "O[?a](~?p)"}, func(m *Match) []logic.FormulaID {
			return []logic.FormulaID{m.Goal}
		})

	// Deontic-cognitive bridges: agents know their obligations, and an
	// obligation an agent knows about binds its intentions.
	r.add("obligation_awareness", c, []string{"O[?a](?p)"}, "Knows[?a](O[?a](?p))")
	r.add("known_obligation_intention", c,
		[]string{"Knows[?a](O[?a](?p))", "Believes[?a](?q -> ?p)"}, "Intends[?a](?q)")
	r.add("said_obligation", c, []string{"Says[?a](O[?b](?p))"}, "Believes[?a](O[?b](?p))")

	// Temporal bridge: a standing obligation persists.
	r.add("obligation_persistence", c, []string{"Always(O[?a](?p))"}, "O[?a](?p)")
}
