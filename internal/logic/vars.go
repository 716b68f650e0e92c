package logic

import "sort"

// FreeVars returns the sorted names of free variables occurring in f.
func (a *Arena) FreeVars(f FormulaID) []string {
	set := make(map[string]struct{})
	a.collectFreeVars(f, set)
	return sortedKeys(set)
}

// TermFreeVars returns the sorted names of free variables occurring in t.
func (a *Arena) TermFreeVars(t TermID) []string {
	set := make(map[string]struct{})
	a.collectTermFreeVars(t, set)
	return sortedKeys(set)
}

// IsGround reports whether f contains no free variables.
func (a *Arena) IsGround(f FormulaID) bool {
	set := make(map[string]struct{})
	a.collectFreeVars(f, set)
	return len(set) == 0
}

// Constants returns the sorted constant names occurring in f. The prover's
// instantiation rules enumerate over this pool.
func (a *Arena) Constants(f FormulaID) []string {
	set := make(map[string]struct{})
	a.collectConstants(f, set)
	return sortedKeys(set)
}

// WellFormed reports whether f is a standalone formula: every bound
// variable occurrence resolves to an enclosing binder and no pattern
// metavariables remain.
func (a *Arena) WellFormed(f FormulaID) bool {
	return a.wellFormed(f, 0)
}

func (a *Arena) wellFormed(id FormulaID, depth int) bool {
	f := a.Formula(id)
	switch f.Kind {
	case KindMeta:
		return false
	case KindQuantifier:
		return a.wellFormed(f.Subs[0], depth+1)
	}
	if f.Agent != NoTerm && !a.termWellFormed(f.Agent, depth) {
		return false
	}
	for _, arg := range f.Args {
		if !a.termWellFormed(arg, depth) {
			return false
		}
	}
	for _, sub := range f.Subs {
		if !a.wellFormed(sub, depth) {
			return false
		}
	}
	return true
}

func (a *Arena) termWellFormed(id TermID, depth int) bool {
	t := a.Term(id)
	switch t.Kind {
	case TermVar:
		if t.MetaVar() {
			return false
		}
		return t.Index == FreeIndex || t.Index < depth
	case TermApp:
		for _, arg := range t.Args {
			if !a.termWellFormed(arg, depth) {
				return false
			}
		}
	}
	return true
}

func (a *Arena) collectFreeVars(id FormulaID, set map[string]struct{}) {
	f := a.Formula(id)
	if f.Agent != NoTerm {
		a.collectTermFreeVars(f.Agent, set)
	}
	for _, arg := range f.Args {
		a.collectTermFreeVars(arg, set)
	}
	for _, sub := range f.Subs {
		a.collectFreeVars(sub, set)
	}
}

func (a *Arena) collectTermFreeVars(id TermID, set map[string]struct{}) {
	t := a.Term(id)
	switch t.Kind {
	case TermVar:
		if t.Index == FreeIndex {
			set[t.Name] = struct{}{}
		}
	case TermApp:
		for _, arg := range t.Args {
			a.collectTermFreeVars(arg, set)
		}
	}
}

func (a *Arena) collectConstants(id FormulaID, set map[string]struct{}) {
	f := a.Formula(id)
	if f.Agent != NoTerm {
		a.collectTermConstants(f.Agent, set)
	}
	for _, arg := range f.Args {
		a.collectTermConstants(arg, set)
	}
	for _, sub := range f.Subs {
		a.collectConstants(sub, set)
	}
}

func (a *Arena) collectTermConstants(id TermID, set map[string]struct{}) {
	t := a.Term(id)
	switch t.Kind {
	case TermConst:
		set[t.Name] = struct{}{}
	case TermApp:
		for _, arg := range t.Args {
			a.collectTermConstants(arg, set)
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
