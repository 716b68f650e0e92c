package rules

import "noesis/internal/logic"

// registerPropositional installs the basic propositional calculus. The
// introduction rules that would otherwise invent an arbitrary operand
// (or-introduction, ex falso) are goal-directed builders instead of
// templates.
func (r *Registry) registerPropositional() {
	c := CategoryPropositional

	r.add("modus_ponens", c, []string{"?p", "?p -> ?q"}, "?q")
	r.add("modus_tollens", c, []string{"?p -> ?q", "~?q"}, "~?p")
	r.add("hypothetical_syllogism", c, []string{"?p -> ?q", "?q -> ?r"}, "?p -> ?r")
	r.add("disjunctive_syllogism_left", c, []string{"?p | ?q", "~?p"}, "?q")
	r.add("disjunctive_syllogism_right", c, []string{"?p | ?q", "~?q"}, "?p")

	r.add("conjunction_introduction", c, []string{"?p", "?q"}, "?p & ?q").
		withSide(func(m *Match) bool {
			// Only conjoin when the goal (or a goal conjunct) wants it;
			// unrestricted pairing floods the fact set quadratically.
			return goalWantsConjunction(m)
		})
	r.add("simplification_left", c, []string{"?p & ?q"}, "?p")
	r.add("simplification_right", c, []string{"?p & ?q"}, "?q")

	r.addBuilt("or_introduction", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		// Goal-directed: derive the goal disjunction when one side holds.
		g := m.Arena.Formula(m.Goal)
		if g.Kind != logic.KindOr {
			return nil
		}
		p := m.Formulas["?p"]
		if m.Arena.Equal(p, g.Subs[0]) || m.Arena.Equal(p, g.Subs[1]) {
			return []logic.FormulaID{m.Goal}
		}
		return nil
	})
	r.addBuilt("ex_falso", c, []string{"?p", "~?p"}, func(m *Match) []logic.FormulaID {
		return []logic.FormulaID{m.Goal}
	})

	r.add("double_negation_elimination", c, []string{"~~?p"}, "?p")
	r.add("double_negation_introduction", c, []string{"?p"}, "~~?p").
		withSide(func(m *Match) bool {
			k := m.Arena.Formula(m.Formulas["?p"]).Kind
			return k != logic.KindNot && k != logic.KindModal &&
				k != logic.KindTemporal && goalWantsKind(m, logic.KindNot)
		})

	r.add("de_morgan_and", c, []string{"~(?p & ?q)"}, "~?p | ~?q")
	r.add("de_morgan_or", c, []string{"~(?p | ?q)"}, "~?p & ~?q")
	r.add("de_morgan_and_reverse", c, []string{"~?p | ~?q"}, "~(?p & ?q)")
	r.add("de_morgan_or_reverse", c, []string{"~?p & ~?q"}, "~(?p | ?q)")

	r.add("contraposition", c, []string{"?p -> ?q"}, "~?q -> ~?p")
	r.add("contraposition_reverse", c, []string{"~?q -> ~?p"}, "?p -> ?q")

	r.add("biconditional_elimination_forward", c, []string{"?p <-> ?q"}, "?p -> ?q")
	r.add("biconditional_elimination_backward", c, []string{"?p <-> ?q"}, "?q -> ?p")
	r.add("biconditional_introduction", c, []string{"?p -> ?q", "?q -> ?p"}, "?p <-> ?q")
	r.add("biconditional_modus_ponens", c, []string{"?p <-> ?q", "?p"}, "?q")
	r.add("biconditional_modus_tollens", c, []string{"?p <-> ?q", "?q"}, "?p")

	r.add("constructive_dilemma", c,
		[]string{"?p -> ?q", "?r -> ?s", "?p | ?r"}, "?q | ?s")
	r.add("destructive_dilemma", c,
		[]string{"?p -> ?q", "?r -> ?s", "~?q | ~?s"}, "~?p | ~?r")

	r.add("absorption", c, []string{"?p -> ?q"}, "?p -> (?p & ?q)")
	r.add("exportation", c, []string{"(?p & ?q) -> ?r"}, "?p -> (?q -> ?r)")
	r.add("importation", c, []string{"?p -> (?q -> ?r)"}, "(?p & ?q) -> ?r")

	r.add("distribution_and_over_or", c, []string{"?p & (?q | ?r)"}, "(?p & ?q) | (?p & ?r)")
	r.add("distribution_or_over_and", c, []string{"?p | (?q & ?r)"}, "(?p | ?q) & (?p | ?r)")

	r.add("binary_resolution", c, []string{"?p | ?q", "~?p | ?r"}, "?q | ?r")

	r.add("implication_to_disjunction", c, []string{"?p -> ?q"}, "~?p | ?q")
	r.add("disjunction_to_implication", c, []string{"~?p | ?q"}, "?p -> ?q")

	r.add("conjunction_idempotence", c, []string{"?p & ?p"}, "?p")
	r.add("disjunction_idempotence", c, []string{"?p | ?p"}, "?p")

	r.add("negated_implication_elimination", c, []string{"~(?p -> ?q)"}, "?p & ~?q")
}

// goalWantsConjunction reports whether the current goal contains a
// conjunction anywhere, so conjunction introduction only fires when a
// conjunction could possibly be needed.
func goalWantsConjunction(m *Match) bool {
	return goalWantsKind(m, logic.KindAnd)
}

// goalWantsKind reports whether the goal contains a node of the given
// kind. The introduction rules gate on it: introducing an operator the
// goal never mentions only inflates the fact set, and the unrestricted
// forms never saturate (Pos/Eventually/~~ towers alternate forever).
func goalWantsKind(m *Match, kind logic.FormulaKind) bool {
	found := false
	m.Arena.Walk(m.Goal, func(_ logic.FormulaID, f logic.Formula) bool {
		if f.Kind == kind {
			found = true
			return false
		}
		return true
	})
	return found
}
