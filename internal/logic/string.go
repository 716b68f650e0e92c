package logic

import (
	"strconv"
	"strings"
)

// =============================================================================
// DISPLAY PRINTING
// =============================================================================

// comparison and arithmetic symbols re-sugared to infix on display. The
// parsers normalize the infix operators to these named symbols, so display
// output always reparses to the same formula.
var infixPreds = map[string]string{
	"eq": "=", "lt": "<", "leq": "<=", "gt": ">", "geq": ">=",
}

var infixFuncs = map[string]string{
	"add": "+", "sub": "-", "mul": "*", "div": "/",
}

// String renders f in native syntax using the original bound-variable
// names. Hints that would shadow an enclosing binder are suffixed with the
// binding depth so the output reparses to an alpha-equivalent formula.
func (a *Arena) String(f FormulaID) string {
	var b strings.Builder
	a.writeFormula(&b, f, nil)
	return b.String()
}

// TermString renders a term in native syntax. Bound variables print by de
// Bruijn index since no binder context is available.
func (a *Arena) TermString(t TermID) string {
	var b strings.Builder
	a.writeTerm(&b, t, nil)
	return b.String()
}

func (a *Arena) writeFormula(b *strings.Builder, id FormulaID, binders []string) {
	f := a.Formula(id)
	switch f.Kind {
	case KindAtom:
		a.writeAtom(b, f, binders)
	case KindNot:
		b.WriteByte('~')
		a.writeFormula(b, f.Subs[0], binders)
	case KindAnd, KindOr, KindImplies, KindIff:
		op := " & "
		switch f.Kind {
		case KindOr:
			op = " | "
		case KindImplies:
			op = " -> "
		case KindIff:
			op = " <-> "
		}
		b.WriteByte('(')
		a.writeFormula(b, f.Subs[0], binders)
		b.WriteString(op)
		a.writeFormula(b, f.Subs[1], binders)
		b.WriteByte(')')
	case KindQuantifier:
		name := a.bindName(f.Sym, binders, a.FreeVars(f.Subs[0]))
		b.WriteByte('(')
		b.WriteString(f.Quant().String())
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteString(". ")
		a.writeFormula(b, f.Subs[0], append(binders, name))
		b.WriteByte(')')
	case KindModal:
		b.WriteString(f.Modal().String())
		b.WriteByte('(')
		a.writeFormula(b, f.Subs[0], binders)
		b.WriteByte(')')
	case KindTemporal:
		b.WriteString(f.Temporal().String())
		b.WriteByte('(')
		a.writeFormula(b, f.Subs[0], binders)
		if f.Temporal().Binary() {
			b.WriteString(", ")
			a.writeFormula(b, f.Subs[1], binders)
		}
		b.WriteByte(')')
	case KindDeontic:
		b.WriteString(f.Deontic().String())
		b.WriteByte('[')
		a.writeTerm(b, f.Agent, binders)
		b.WriteString("](")
		a.writeFormula(b, f.Subs[0], binders)
		b.WriteByte(')')
	case KindCognitive:
		k := f.Cognitive()
		b.WriteString(k.String())
		if k != Common {
			b.WriteByte('[')
			a.writeTerm(b, f.Agent, binders)
			b.WriteByte(']')
		}
		b.WriteByte('(')
		a.writeFormula(b, f.Subs[0], binders)
		b.WriteByte(')')
	case KindMeta:
		b.WriteString(f.Sym)
	}
}

func (a *Arena) writeAtom(b *strings.Builder, f Formula, binders []string) {
	if op, ok := infixPreds[f.Sym]; ok && len(f.Args) == 2 {
		b.WriteByte('(')
		a.writeTerm(b, f.Args[0], binders)
		b.WriteByte(' ')
		b.WriteString(op)
		b.WriteByte(' ')
		a.writeTerm(b, f.Args[1], binders)
		b.WriteByte(')')
		return
	}
	b.WriteString(f.Sym)
	if len(f.Args) == 0 {
		return
	}
	b.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.writeTerm(b, arg, binders)
	}
	b.WriteByte(')')
}

func (a *Arena) writeTerm(b *strings.Builder, id TermID, binders []string) {
	if id == NoTerm {
		return
	}
	t := a.Term(id)
	switch t.Kind {
	case TermVar:
		if t.Index == FreeIndex {
			b.WriteString(t.Name)
			return
		}
		pos := len(binders) - 1 - t.Index
		if pos >= 0 && pos < len(binders) {
			b.WriteString(binders[pos])
			return
		}
		b.WriteString("u" + strconv.Itoa(t.Index-len(binders)))
	case TermConst:
		b.WriteString(t.Name)
	case TermApp:
		if op, ok := infixFuncs[t.Name]; ok && len(t.Args) == 2 {
			b.WriteByte('(')
			a.writeTerm(b, t.Args[0], binders)
			b.WriteByte(' ')
			b.WriteString(op)
			b.WriteByte(' ')
			a.writeTerm(b, t.Args[1], binders)
			b.WriteByte(')')
			return
		}
		b.WriteString(t.Name)
		b.WriteByte('(')
		for i, arg := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.writeTerm(b, arg, binders)
		}
		b.WriteByte(')')
	}
}

// bindName picks the display name for a binder, suffixing the hint when it
// would shadow an enclosing binder or capture a free variable of the body.
func (a *Arena) bindName(hint string, binders, avoid []string) string {
	if hint == "" {
		hint = "v" + strconv.Itoa(len(binders))
	}
	name := hint
	for i := len(binders); taken(name, binders) || taken(name, avoid); i++ {
		name = hint + strconv.Itoa(i)
	}
	return name
}

func taken(name string, names []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
