package rules

import "noesis/internal/logic"

// registerTemporal installs the modal (S4-flavored) and linear-temporal
// rules. The alethic and temporal operators share the category since
// the router treats them as one class.
func (r *Registry) registerTemporal() {
	c := CategoryTemporal

	// Alethic modal: T, 4, D, B, K and the dualities.
	r.add("necessity_elimination", c, []string{"Nec(?p)"}, "?p")
	r.add("necessity_iteration", c, []string{"Nec(?p)"}, "Nec(Nec(?p))").
		withSide(func(m *Match) bool {
			return m.Arena.Formula(m.Formulas["?p"]).Kind != logic.KindModal
		})
	r.add("necessity_to_possibility", c, []string{"Nec(?p)"}, "Pos(?p)")
	r.add("possibility_introduction", c, []string{"?p"}, "Pos(?p)").
		withSide(modalIntroduction("?p"))
	r.add("symmetric_possibility", c, []string{"?p"}, "Nec(Pos(?p))").
		withSide(modalIntroduction("?p"))
	r.add("modal_distribution", c, []string{"Nec(?p -> ?q)", "Nec(?p)"}, "Nec(?q)")
	r.add("modal_modus_ponens", c, []string{"Nec(?p -> ?q)", "?p"}, "?q")
	r.add("necessity_duality", c, []string{"~Pos(?p)"}, "Nec(~?p)")
	r.add("necessity_duality_reverse", c, []string{"Nec(~?p)"}, "~Pos(?p)")
	r.add("possibility_duality", c, []string{"~Nec(?p)"}, "Pos(~?p)")
	r.add("possibility_duality_reverse", c, []string{"Pos(~?p)"}, "~Nec(?p)")
	r.add("necessity_conjunction_introduction", c,
		[]string{"Nec(?p)", "Nec(?q)"}, "Nec(?p & ?q)").
		withSide(func(m *Match) bool { return goalWantsConjunction(m) })
	r.add("necessity_simplification_left", c, []string{"Nec(?p & ?q)"}, "Nec(?p)")
	r.add("necessity_simplification_right", c, []string{"Nec(?p & ?q)"}, "Nec(?q)")

	// Linear temporal: Always / Eventually / Next.
	r.add("always_elimination", c, []string{"Always(?p)"}, "?p")
	r.add("always_to_next", c, []string{"Always(?p)"}, "Next(?p)")
	r.add("always_unfolding", c, []string{"Always(?p)"}, "Next(Always(?p))")
	r.add("always_to_eventually", c, []string{"Always(?p)"}, "Eventually(?p)")
	r.add("eventually_introduction", c, []string{"?p"}, "Eventually(?p)").
		withSide(temporalIntroduction("?p"))
	r.add("always_idempotence", c, []string{"Always(Always(?p))"}, "Always(?p)")
	r.add("eventually_idempotence", c, []string{"Eventually(Eventually(?p))"}, "Eventually(?p)")
	r.add("always_distribution", c,
		[]string{"Always(?p -> ?q)", "Always(?p)"}, "Always(?q)")
	r.add("temporal_modus_ponens", c, []string{"Always(?p -> ?q)", "?p"}, "?q")
	r.add("next_distribution", c, []string{"Next(?p -> ?q)", "Next(?p)"}, "Next(?q)")
	r.add("always_conjunction_introduction", c,
		[]string{"Always(?p)", "Always(?q)"}, "Always(?p & ?q)").
		withSide(func(m *Match) bool { return goalWantsConjunction(m) })
	r.add("always_simplification_left", c, []string{"Always(?p & ?q)"}, "Always(?p)")
	r.add("always_simplification_right", c, []string{"Always(?p & ?q)"}, "Always(?q)")

	// Temporal dualities.
	r.add("always_duality", c, []string{"~Eventually(?p)"}, "Always(~?p)")
	r.add("eventually_duality", c, []string{"~Always(?p)"}, "Eventually(~?p)")

	// Until / Since.
	r.add("until_unfolding", c, []string{"Until(?p, ?q)"}, "?q | (?p & Next(Until(?p, ?q)))")
	r.add("until_to_eventually", c, []string{"Until(?p, ?q)"}, "Eventually(?q)")
	r.add("since_elimination", c, []string{"Since(?p, ?q)"}, "?p")
	r.add("always_until", c, []string{"Always(?p)", "Eventually(?q)"}, "Until(?p, ?q)")

	// Temporal induction.
	r.add("temporal_induction", c,
		[]string{"?p", "Always(?p -> Next(?p))"}, "Always(?p)")
}

// modalIntroduction guards Pos/Nec introduction: the bound body must
// not already carry a modal or temporal operator, and the goal must
// mention a modal operator at all. Without both checks the modal and
// temporal introductions alternate over each other's output and the
// fact set never saturates.
func modalIntroduction(meta string) func(m *Match) bool {
	return func(m *Match) bool {
		k := m.Arena.Formula(m.Formulas[meta]).Kind
		return k != logic.KindModal && k != logic.KindTemporal &&
			goalWantsKind(m, logic.KindModal)
	}
}

func temporalIntroduction(meta string) func(m *Match) bool {
	return func(m *Match) bool {
		k := m.Arena.Formula(m.Formulas[meta]).Kind
		return k != logic.KindModal && k != logic.KindTemporal &&
			goalWantsKind(m, logic.KindTemporal)
	}
}
