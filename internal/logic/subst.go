package logic

// Subst maps free-variable names to terms. Bindings are created by
// unification; the bound terms never contain quantifier-bound variables,
// so applying a substitution under a binder needs no index shifting.
type Subst map[string]TermID

// Clone copies the substitution. Callers branch by cloning before trying
// an alternative extension.
func (s Subst) Clone() Subst {
	out := make(Subst, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Resolve follows variable bindings in s until reaching a non-variable or
// an unbound variable. Occurs-checked substitutions cannot cycle.
func (a *Arena) Resolve(t TermID, s Subst) TermID {
	for {
		term := a.Term(t)
		if term.Kind != TermVar || term.Index != FreeIndex {
			return t
		}
		bound, ok := s[term.Name]
		if !ok {
			return t
		}
		t = bound
	}
}

// ApplyTermSubst replaces every free variable bound in s, resolving
// binding chains fully.
func (a *Arena) ApplyTermSubst(t TermID, s Subst) TermID {
	if len(s) == 0 {
		return t
	}
	term := a.Term(t)
	switch term.Kind {
	case TermVar:
		if term.Index != FreeIndex {
			return t
		}
		bound, ok := s[term.Name]
		if !ok {
			return t
		}
		return a.ApplyTermSubst(bound, s)
	case TermConst:
		return t
	case TermApp:
		changed := false
		args := make([]TermID, len(term.Args))
		for i, arg := range term.Args {
			args[i] = a.ApplyTermSubst(arg, s)
			if args[i] != arg {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return a.MkApp(term.Name, args...)
	}
	return t
}

// ApplySubst replaces every free variable bound in s throughout f.
func (a *Arena) ApplySubst(f FormulaID, s Subst) FormulaID {
	if len(s) == 0 {
		return f
	}
	node := a.Formula(f)
	agent := node.Agent
	if agent != NoTerm {
		agent = a.ApplyTermSubst(agent, s)
	}
	changed := agent != node.Agent

	var args []TermID
	if len(node.Args) > 0 {
		args = make([]TermID, len(node.Args))
		for i, arg := range node.Args {
			args[i] = a.ApplyTermSubst(arg, s)
			if args[i] != arg {
				changed = true
			}
		}
	}
	var subs []FormulaID
	if len(node.Subs) > 0 {
		subs = make([]FormulaID, len(node.Subs))
		for i, sub := range node.Subs {
			subs[i] = a.ApplySubst(sub, s)
			if subs[i] != sub {
				changed = true
			}
		}
	}
	if !changed {
		return f
	}
	return a.internFormula(Formula{Kind: node.Kind, Op: node.Op, Sym: node.Sym, Agent: agent, Args: args, Subs: subs})
}

// Instantiate eliminates the outer binder of a quantified formula,
// substituting t for every occurrence bound to it. t must not contain
// bound variables. Returns false if q is not a quantifier.
func (a *Arena) Instantiate(q FormulaID, t TermID) (FormulaID, bool) {
	f := a.Formula(q)
	if f.Kind != KindQuantifier {
		return NoFormula, false
	}
	return a.instFormula(f.Subs[0], 0, t), true
}

func (a *Arena) instFormula(id FormulaID, depth int, repl TermID) FormulaID {
	f := a.Formula(id)
	if f.Kind == KindQuantifier {
		body := a.instFormula(f.Subs[0], depth+1, repl)
		if body == f.Subs[0] {
			return id
		}
		return a.MkQuantifier(f.Quant(), f.Sym, body)
	}
	agent := f.Agent
	if agent != NoTerm {
		agent = a.instTerm(agent, depth, repl)
	}
	changed := agent != f.Agent

	var args []TermID
	if len(f.Args) > 0 {
		args = make([]TermID, len(f.Args))
		for i, arg := range f.Args {
			args[i] = a.instTerm(arg, depth, repl)
			if args[i] != arg {
				changed = true
			}
		}
	}
	var subs []FormulaID
	if len(f.Subs) > 0 {
		subs = make([]FormulaID, len(f.Subs))
		for i, sub := range f.Subs {
			subs[i] = a.instFormula(sub, depth, repl)
			if subs[i] != sub {
				changed = true
			}
		}
	}
	if !changed {
		return id
	}
	return a.internFormula(Formula{Kind: f.Kind, Op: f.Op, Sym: f.Sym, Agent: agent, Args: args, Subs: subs})
}

func (a *Arena) instTerm(id TermID, depth int, repl TermID) TermID {
	t := a.Term(id)
	switch t.Kind {
	case TermVar:
		if t.Index == FreeIndex {
			return id
		}
		if t.Index == depth {
			return repl
		}
		if t.Index > depth {
			return a.MkVar(t.Name, t.Index-1)
		}
		return id
	case TermConst:
		return id
	case TermApp:
		changed := false
		args := make([]TermID, len(t.Args))
		for i, arg := range t.Args {
			args[i] = a.instTerm(arg, depth, repl)
			if args[i] != arg {
				changed = true
			}
		}
		if !changed {
			return id
		}
		return a.MkApp(t.Name, args...)
	}
	return id
}

// Abstract binds every free occurrence of the named variable under a new
// outer quantifier.
func (a *Arena) Abstract(f FormulaID, name string, k QuantKind) FormulaID {
	target := a.MkFreeVar(name)
	body := a.absFormula(f, 0, target, name)
	return a.MkQuantifier(k, name, body)
}

// AbstractTerm generalizes every occurrence of the ground term t (usually
// a constant) to a variable bound by a new outer quantifier. Used by
// existential generalization.
func (a *Arena) AbstractTerm(f FormulaID, t TermID, hint string, k QuantKind) FormulaID {
	body := a.absFormula(f, 0, t, hint)
	return a.MkQuantifier(k, hint, body)
}

func (a *Arena) absFormula(id FormulaID, depth int, target TermID, hint string) FormulaID {
	f := a.Formula(id)
	if f.Kind == KindQuantifier {
		body := a.absFormula(f.Subs[0], depth+1, target, hint)
		if body == f.Subs[0] {
			return id
		}
		return a.MkQuantifier(f.Quant(), f.Sym, body)
	}
	agent := f.Agent
	if agent != NoTerm {
		agent = a.absTerm(agent, depth, target, hint)
	}
	changed := agent != f.Agent

	var args []TermID
	if len(f.Args) > 0 {
		args = make([]TermID, len(f.Args))
		for i, arg := range f.Args {
			args[i] = a.absTerm(arg, depth, target, hint)
			if args[i] != arg {
				changed = true
			}
		}
	}
	var subs []FormulaID
	if len(f.Subs) > 0 {
		subs = make([]FormulaID, len(f.Subs))
		for i, sub := range f.Subs {
			subs[i] = a.absFormula(sub, depth, target, hint)
			if subs[i] != sub {
				changed = true
			}
		}
	}
	if !changed {
		return id
	}
	return a.internFormula(Formula{Kind: f.Kind, Op: f.Op, Sym: f.Sym, Agent: agent, Args: args, Subs: subs})
}

func (a *Arena) absTerm(id TermID, depth int, target TermID, hint string) TermID {
	if id == target {
		return a.MkVar(hint, depth)
	}
	t := a.Term(id)
	if t.Kind != TermApp {
		return id
	}
	changed := false
	args := make([]TermID, len(t.Args))
	for i, arg := range t.Args {
		args[i] = a.absTerm(arg, depth, target, hint)
		if args[i] != arg {
			changed = true
		}
	}
	if !changed {
		return id
	}
	return a.MkApp(t.Name, args...)
}
