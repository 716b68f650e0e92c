package rules

import "noesis/internal/logic"

// registerCognitive installs the cognitive event calculus rules:
// perception, knowledge, belief, desire, intention, utterance and
// common knowledge. Knowledge is veridical and introspective; belief is
// weaker and closed under the same distribution.
func (r *Registry) registerCognitive() {
	c := CategoryCognitive

	// Perception and the knowledge/belief hierarchy.
	r.add("perception_to_knowledge", c, []string{"Perceives[?a](?p)"}, "Knows[?a](?p)")
	r.add("knowledge_to_belief", c, []string{"Knows[?a](?p)"}, "Believes[?a](?p)")
	r.add("knowledge_veridicality", c, []string{"Knows[?a](?p)"}, "?p")

	// Introspection.
	r.add("positive_introspection", c, []string{"Knows[?a](?p)"}, "Knows[?a](Knows[?a](?p))").
		withSide(noNestedCognition("?p"))
	r.add("belief_introspection", c, []string{"Believes[?a](?p)"}, "Believes[?a](Believes[?a](?p))").
		withSide(noNestedCognition("?p"))

	// Epistemic closure (the K axiom for Knows and Believes).
	r.add("knowledge_distribution", c,
		[]string{"Knows[?a](?p -> ?q)", "Knows[?a](?p)"}, "Knows[?a](?q)")
	r.add("belief_distribution", c,
		[]string{"Believes[?a](?p -> ?q)", "Believes[?a](?p)"}, "Believes[?a](?q)")
	r.add("knowledge_modus_tollens", c,
		[]string{"Knows[?a](?p -> ?q)", "Knows[?a](~?q)"}, "Knows[?a](~?p)")

	// Conjunction inside an attitude.
	r.add("knowledge_conjunction_introduction", c,
		[]string{"Knows[?a](?p)", "Knows[?a](?q)"}, "Knows[?a](?p & ?q)").
		withSide(func(m *Match) bool { return goalWantsConjunction(m) })
	r.add("knowledge_simplification_left", c, []string{"Knows[?a](?p & ?q)"}, "Knows[?a](?p)")
	r.add("knowledge_simplification_right", c, []string{"Knows[?a](?p & ?q)"}, "Knows[?a](?q)")
	r.add("belief_conjunction_introduction", c,
		[]string{"Believes[?a](?p)", "Believes[?a](?q)"}, "Believes[?a](?p & ?q)").
		withSide(func(m *Match) bool { return goalWantsConjunction(m) })
	r.add("belief_simplification_left", c, []string{"Believes[?a](?p & ?q)"}, "Believes[?a](?p)")
	r.add("belief_simplification_right", c, []string{"Believes[?a](?p & ?q)"}, "Believes[?a](?q)")

	// Common knowledge: every agent in the constant pool knows, and
	// knows that it is common knowledge.
	r.addBuilt("common_knowledge_instantiation", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		f := m.Formulas["?p"]
		if m.Arena.Formula(f).Kind != logic.KindCognitive || m.Arena.Formula(f).Cognitive() != logic.Common {
			return nil
		}
		body := m.Arena.Formula(f).Subs[0]
		var out []logic.FormulaID
		for _, agent := range m.Consts {
			out = append(out, m.Arena.MkCognitive(logic.Knows, agent, body))
		}
		return out
	})
	r.addBuilt("common_knowledge_iteration", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		f := m.Formulas["?p"]
		node := m.Arena.Formula(f)
		if node.Kind != logic.KindCognitive || node.Cognitive() != logic.Common {
			return nil
		}
		var out []logic.FormulaID
		for _, agent := range m.Consts {
			out = append(out, m.Arena.MkCognitive(logic.Knows, agent, f))
		}
		return out
	})

	// Utterances.
	r.add("utterance_sincerity", c, []string{"Says[?a](?p)"}, "Believes[?a](?p)")
	r.addBuilt("utterance_publicity", c, []string{"?p"}, func(m *Match) []logic.FormulaID {
		f := m.Formulas["?p"]
		node := m.Arena.Formula(f)
		if node.Kind != logic.KindCognitive || node.Cognitive() != logic.Says {
			return nil
		}
		// Everyone perceives a public utterance.
		var out []logic.FormulaID
		for _, hearer := range m.Consts {
			if hearer == node.Agent {
				continue
			}
			out = append(out, m.Arena.MkCognitive(logic.Perceives, hearer, f))
		}
		return out
	})

	// Desire and intention transfer.
	r.add("desire_belief_intention", c,
		[]string{"Desires[?a](?p)", "Believes[?a](?q -> ?p)"}, "Intends[?a](?q)")
	r.add("intention_persistence", c,
		[]string{"Intends[?a](?p)", "Believes[?a](?p -> ?q)"}, "Desires[?a](?q)")
	r.add("intention_to_belief", c, []string{"Intends[?a](?p)"}, "Believes[?a](Desires[?a](?p))")

	// Nested attitudes flatten where knowledge is veridical.
	r.add("nested_knowledge_elimination", c,
		[]string{"Knows[?a](Knows[?b](?p))"}, "Knows[?b](?p)")
	r.add("knowledge_of_belief", c,
		[]string{"Knows[?a](Believes[?b](?p))"}, "Believes[?b](?p)")

	// Agents know the logical truths they perceive as implications.
	r.add("perceived_implication_closure", c,
		[]string{"Perceives[?a](?p -> ?q)", "Knows[?a](?p)"}, "Knows[?a](?q)")
	r.add("belief_negation_consistency", c,
		[]string{"Believes[?a](?p)", "Knows[?a](?p -> ?q)"}, "Believes[?a](?q)")
}

// noNestedCognition guards the introspection rules against unbounded
// self-nesting: the bound body must not itself be a cognitive formula.
func noNestedCognition(meta string) func(m *Match) bool {
	return func(m *Match) bool {
		return m.Arena.Formula(m.Formulas[meta]).Kind != logic.KindCognitive
	}
}
