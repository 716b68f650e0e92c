package rules

import "noesis/internal/logic"

// =============================================================================
// PATTERN MATCHING & CONCLUSION BUILDING
// =============================================================================
//
// Patterns live in the registry arena, facts in the search arena, so the
// match walks two arenas in lockstep. Matching is one-way: pattern
// metavariables (?p formulas, free ?x / x term variables) bind fact
// structure; fact variables never bind pattern structure. Bound (de
// Bruijn) variables match by index alone.

// MatchPremise matches one premise pattern against one fact, extending m
// in place. Returns false (m unchanged semantically but possibly grown;
// callers clone before branching) when the shapes disagree.
func MatchPremise(pat *logic.Arena, pattern logic.FormulaID, m *Match, fact logic.FormulaID) bool {
	return matchFormula(pat, pattern, m, fact)
}

// CloneMatch copies the binding state so a caller can branch.
func CloneMatch(m *Match) *Match {
	out := &Match{
		Arena:    m.Arena,
		Formulas: make(map[string]logic.FormulaID, len(m.Formulas)+2),
		Terms:    m.Terms.Clone(),
		Premises: append([]logic.FormulaID(nil), m.Premises...),
		Consts:   m.Consts,
		Goal:     m.Goal,
	}
	for k, v := range m.Formulas {
		out.Formulas[k] = v
	}
	return out
}

func matchFormula(pat *logic.Arena, pid logic.FormulaID, m *Match, fid logic.FormulaID) bool {
	p := pat.Formula(pid)
	if p.Kind == logic.KindMeta {
		if bound, ok := m.Formulas[p.Sym]; ok {
			return m.Arena.Equal(bound, fid)
		}
		m.Formulas[p.Sym] = fid
		return true
	}
	f := m.Arena.Formula(fid)
	if p.Kind != f.Kind || p.Op != f.Op {
		return false
	}
	switch p.Kind {
	case logic.KindAtom:
		if p.Sym != f.Sym || len(p.Args) != len(f.Args) {
			return false
		}
		for i := range p.Args {
			if !matchTerm(pat, p.Args[i], m, f.Args[i]) {
				return false
			}
		}
		return true
	case logic.KindQuantifier:
		return matchFormula(pat, p.Subs[0], m, f.Subs[0])
	default:
		if (p.Agent == logic.NoTerm) != (f.Agent == logic.NoTerm) {
			return false
		}
		if p.Agent != logic.NoTerm && !matchTerm(pat, p.Agent, m, f.Agent) {
			return false
		}
		if len(p.Subs) != len(f.Subs) {
			return false
		}
		for i := range p.Subs {
			if !matchFormula(pat, p.Subs[i], m, f.Subs[i]) {
				return false
			}
		}
		return true
	}
}

func matchTerm(pat *logic.Arena, pid logic.TermID, m *Match, tid logic.TermID) bool {
	p := pat.Term(pid)
	switch p.Kind {
	case logic.TermVar:
		if p.Index != logic.FreeIndex {
			// Bound variable: match by index only.
			t := m.Arena.Term(tid)
			return t.Kind == logic.TermVar && t.Index == p.Index
		}
		if bound, ok := m.Terms[p.Name]; ok {
			return bound == tid
		}
		m.Terms[p.Name] = tid
		return true
	case logic.TermConst:
		t := m.Arena.Term(tid)
		return t.Kind == logic.TermConst && t.Name == p.Name
	case logic.TermApp:
		t := m.Arena.Term(tid)
		if t.Kind != logic.TermApp || t.Name != p.Name || len(t.Args) != len(p.Args) {
			return false
		}
		for i := range p.Args {
			if !matchTerm(pat, p.Args[i], m, t.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Conclude instantiates a rule's conclusion under a completed match,
// building the result in the fact arena. Template rules substitute their
// bindings; Build rules run their builder. A nil/empty result means the
// rule abstains for this match.
func Conclude(pat *logic.Arena, rule *Rule, m *Match) []logic.FormulaID {
	if rule.Build != nil {
		return rule.Build(m)
	}
	f, ok := buildFormula(pat, rule.Conclusion, m)
	if !ok {
		return nil
	}
	return []logic.FormulaID{f}
}

func buildFormula(pat *logic.Arena, pid logic.FormulaID, m *Match) (logic.FormulaID, bool) {
	p := pat.Formula(pid)
	if p.Kind == logic.KindMeta {
		bound, ok := m.Formulas[p.Sym]
		return bound, ok
	}
	agent := logic.NoTerm
	if p.Agent != logic.NoTerm {
		var ok bool
		agent, ok = buildTerm(pat, p.Agent, m)
		if !ok {
			return logic.NoFormula, false
		}
	}
	switch p.Kind {
	case logic.KindAtom:
		args := make([]logic.TermID, len(p.Args))
		for i, a := range p.Args {
			t, ok := buildTerm(pat, a, m)
			if !ok {
				return logic.NoFormula, false
			}
			args[i] = t
		}
		return m.Arena.MkAtom(p.Sym, args...), true
	case logic.KindNot:
		sub, ok := buildFormula(pat, p.Subs[0], m)
		if !ok {
			return logic.NoFormula, false
		}
		return m.Arena.MkNot(sub), true
	case logic.KindAnd, logic.KindOr, logic.KindImplies, logic.KindIff:
		l, ok := buildFormula(pat, p.Subs[0], m)
		if !ok {
			return logic.NoFormula, false
		}
		r, ok := buildFormula(pat, p.Subs[1], m)
		if !ok {
			return logic.NoFormula, false
		}
		switch p.Kind {
		case logic.KindAnd:
			return m.Arena.MkAnd(l, r), true
		case logic.KindOr:
			return m.Arena.MkOr(l, r), true
		case logic.KindImplies:
			return m.Arena.MkImplies(l, r), true
		default:
			return m.Arena.MkIff(l, r), true
		}
	case logic.KindQuantifier:
		body, ok := buildFormula(pat, p.Subs[0], m)
		if !ok {
			return logic.NoFormula, false
		}
		return m.Arena.MkQuantifier(p.Quant(), p.Sym, body), true
	case logic.KindModal:
		body, ok := buildFormula(pat, p.Subs[0], m)
		if !ok {
			return logic.NoFormula, false
		}
		return m.Arena.MkModal(p.Modal(), body), true
	case logic.KindTemporal:
		first, ok := buildFormula(pat, p.Subs[0], m)
		if !ok {
			return logic.NoFormula, false
		}
		second := logic.NoFormula
		if p.Temporal().Binary() {
			second, ok = buildFormula(pat, p.Subs[1], m)
			if !ok {
				return logic.NoFormula, false
			}
		}
		return m.Arena.MkTemporal(p.Temporal(), first, second), true
	case logic.KindDeontic:
		body, ok := buildFormula(pat, p.Subs[0], m)
		if !ok {
			return logic.NoFormula, false
		}
		return m.Arena.MkDeontic(p.Deontic(), agent, body), true
	case logic.KindCognitive:
		body, ok := buildFormula(pat, p.Subs[0], m)
		if !ok {
			return logic.NoFormula, false
		}
		return m.Arena.MkCognitive(p.Cognitive(), agent, body), true
	default:
		return logic.NoFormula, false
	}
}

func buildTerm(pat *logic.Arena, pid logic.TermID, m *Match) (logic.TermID, bool) {
	p := pat.Term(pid)
	switch p.Kind {
	case logic.TermVar:
		if p.Index != logic.FreeIndex {
			return m.Arena.MkVar(p.Name, p.Index), true
		}
		bound, ok := m.Terms[p.Name]
		return bound, ok
	case logic.TermConst:
		return m.Arena.MkConst(p.Name), true
	case logic.TermApp:
		args := make([]logic.TermID, len(p.Args))
		for i, a := range p.Args {
			t, ok := buildTerm(pat, a, m)
			if !ok {
				return logic.NoTerm, false
			}
			args[i] = t
		}
		return m.Arena.MkApp(p.Name, args...), true
	}
	return logic.NoTerm, false
}
