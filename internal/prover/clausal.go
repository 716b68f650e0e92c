package prover

import (
	"sort"
	"strconv"
	"strings"

	"noesis/internal/logic"
)

// =============================================================================
// CLAUSAL NORMALIZATION
// =============================================================================
//
// The resolution fallback works on the first-order fragment only. A
// formula is clausified in one pass: connectives are rewritten to
// negation normal form while binders are eliminated on the way down,
// universals (under positive polarity) by fresh free variables and
// existentials by Skolem terms over the universals in scope. The
// quantifier-free result is then distributed into conjunctive normal
// form.

// literal is an atom or its negation. atom always names a KindAtom node.
type literal struct {
	neg  bool
	atom logic.FormulaID
}

// clause is a disjunction of literals, kept sorted and deduplicated by
// its key form.
type clause []literal

// folFragment reports whether f stays inside first-order logic: atoms
// and the classical connectives and quantifiers, nothing modal,
// temporal, deontic or cognitive.
func folFragment(a *logic.Arena, f logic.FormulaID) bool {
	ok := true
	a.Walk(f, func(_ logic.FormulaID, node logic.Formula) bool {
		switch node.Kind {
		case logic.KindAtom, logic.KindNot, logic.KindAnd, logic.KindOr,
			logic.KindImplies, logic.KindIff, logic.KindQuantifier:
			return true
		default:
			ok = false
			return false
		}
	})
	return ok
}

// clausifier carries the per-problem Skolem and clause-count state.
type clausifier struct {
	arena      *logic.Arena
	maxClauses int
	overflow   bool
}

const defaultClauseCap = 4000

// clausify converts one formula (under the given polarity) to CNF
// clauses. neg=true clausifies the negation, used for the goal.
func (c *clausifier) clausify(f logic.FormulaID, neg bool) []clause {
	matrix := c.normalize(f, neg, nil)
	return c.cnf(matrix)
}

// normalize rewrites to NNF and removes binders. univ lists the fresh
// variables standing for the universals in scope, in binding order;
// Skolem terms take them as arguments.
func (c *clausifier) normalize(f logic.FormulaID, neg bool, univ []logic.TermID) logic.FormulaID {
	a := c.arena
	node := a.Formula(f)
	switch node.Kind {
	case logic.KindAtom:
		if neg {
			return a.MkNot(f)
		}
		return f
	case logic.KindNot:
		return c.normalize(node.Subs[0], !neg, univ)
	case logic.KindAnd:
		l := c.normalize(node.Subs[0], neg, univ)
		r := c.normalize(node.Subs[1], neg, univ)
		if neg {
			return a.MkOr(l, r)
		}
		return a.MkAnd(l, r)
	case logic.KindOr:
		l := c.normalize(node.Subs[0], neg, univ)
		r := c.normalize(node.Subs[1], neg, univ)
		if neg {
			return a.MkAnd(l, r)
		}
		return a.MkOr(l, r)
	case logic.KindImplies:
		l := c.normalize(node.Subs[0], !neg, univ)
		r := c.normalize(node.Subs[1], neg, univ)
		if neg {
			return a.MkAnd(l, r)
		}
		return a.MkOr(l, r)
	case logic.KindIff:
		// (p <-> q) becomes (p -> q) and (q -> p); negated, the
		// exclusive disjunction. Each copy is normalized separately so
		// quantifiers inside get independent instances.
		p, q := node.Subs[0], node.Subs[1]
		if neg {
			left := a.MkAnd(p, a.MkNot(q))
			right := a.MkAnd(a.MkNot(p), q)
			return c.normalize(a.MkOr(left, right), false, univ)
		}
		return c.normalize(a.MkAnd(a.MkImplies(p, q), a.MkImplies(q, p)), false, univ)
	case logic.KindQuantifier:
		universal := node.Quant() == logic.Forall
		if neg {
			universal = !universal
		}
		if universal {
			v := a.FreshVar("u")
			body, _ := a.Instantiate(f, v)
			return c.normalize(body, neg, append(univ, v))
		}
		body, _ := a.Instantiate(f, c.skolem(univ))
		return c.normalize(body, neg, univ)
	default:
		// Guarded by folFragment; unreachable.
		return f
	}
}

// skolem builds a witness term over the universals in scope.
func (c *clausifier) skolem(univ []logic.TermID) logic.TermID {
	a := c.arena
	if len(univ) == 0 {
		return a.FreshConst("sk")
	}
	name := a.Term(a.FreshConst("sk")).Name
	return a.MkApp(name, univ...)
}

// cnf distributes a quantifier-free NNF matrix into clauses.
func (c *clausifier) cnf(f logic.FormulaID) []clause {
	a := c.arena
	node := a.Formula(f)
	switch node.Kind {
	case logic.KindAnd:
		return append(c.cnf(node.Subs[0]), c.cnf(node.Subs[1])...)
	case logic.KindOr:
		left := c.cnf(node.Subs[0])
		right := c.cnf(node.Subs[1])
		if len(left)*len(right) > c.maxClauses {
			c.overflow = true
			return nil
		}
		out := make([]clause, 0, len(left)*len(right))
		for _, l := range left {
			for _, r := range right {
				merged := make(clause, 0, len(l)+len(r))
				merged = append(merged, l...)
				merged = append(merged, r...)
				out = append(out, merged)
			}
		}
		return out
	case logic.KindNot:
		return []clause{{literal{neg: true, atom: node.Subs[0]}}}
	default:
		return []clause{{literal{neg: false, atom: f}}}
	}
}

// normalized sorts, deduplicates and tautology-checks a clause. The
// second return is false for tautologies, which carry no information.
func (c *clausifier) normalized(cl clause) (clause, bool) {
	a := c.arena
	sort.Slice(cl, func(i, j int) bool {
		ki, kj := litKey(a, cl[i]), litKey(a, cl[j])
		return ki < kj
	})
	out := cl[:0]
	var prev string
	for i, lit := range cl {
		k := litKey(a, lit)
		if i > 0 && k == prev {
			continue
		}
		prev = k
		out = append(out, lit)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[i].atom == out[j].atom && out[i].neg != out[j].neg {
				return nil, false
			}
		}
	}
	return out, true
}

// litKey is a stable identity for a literal, used for clause dedup.
func litKey(a *logic.Arena, lit literal) string {
	var b strings.Builder
	if lit.neg {
		b.WriteByte('~')
	}
	b.WriteString(strconv.FormatInt(int64(lit.atom), 10))
	return b.String()
}

// clauseKey identifies a normalized clause for the seen set. Clauses
// are compared after variable renaming via canonical form of the
// rebuilt disjunction, so alphabetic variants collapse.
func clauseKey(a *logic.Arena, cl clause) string {
	if len(cl) == 0 {
		return ""
	}
	f := litFormula(a, cl[0])
	for _, lit := range cl[1:] {
		f = a.MkOr(f, litFormula(a, lit))
	}
	return a.Canonical(closeOver(a, f))
}

func litFormula(a *logic.Arena, lit literal) logic.FormulaID {
	if lit.neg {
		return a.MkNot(lit.atom)
	}
	return lit.atom
}

// closeOver universally binds every free variable of f, so canonical
// binder renaming makes variable names irrelevant to the key.
func closeOver(a *logic.Arena, f logic.FormulaID) logic.FormulaID {
	for _, name := range a.FreeVars(f) {
		f = a.Abstract(f, name, logic.Forall)
	}
	return f
}

// rename standardizes a clause apart by mapping its free variables to
// fresh ones.
func (c *clausifier) rename(cl clause) clause {
	a := c.arena
	seen := make(map[string]logic.TermID)
	var sub logic.Subst
	for _, lit := range cl {
		for _, name := range a.FreeVars(lit.atom) {
			if _, ok := seen[name]; ok {
				continue
			}
			fresh := a.FreshVar("r")
			seen[name] = fresh
			if sub == nil {
				sub = logic.Subst{}
			}
			sub[name] = fresh
		}
	}
	if sub == nil {
		return cl
	}
	out := make(clause, len(cl))
	for i, lit := range cl {
		out[i] = literal{neg: lit.neg, atom: a.ApplySubst(lit.atom, sub)}
	}
	return out
}
