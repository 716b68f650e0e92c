package logic

// TermID is an arena index for a term node. Child references inside the
// arena are always IDs, never pointers, so term graphs cannot form cycles
// and structural sharing is free.
type TermID int32

// NoTerm marks an absent term reference (for example the agent slot of a
// Common-knowledge formula).
const NoTerm TermID = -1

// FreeIndex marks a variable that is not bound by any quantifier. Free
// variables are identified by name; bound variables are identified by de
// Bruijn index and carry their name only as a display hint.
const FreeIndex = -1

// TermKind discriminates the term variants.
type TermKind uint8

const (
	TermVar TermKind = iota
	TermConst
	TermApp
)

func (k TermKind) String() string {
	switch k {
	case TermVar:
		return "var"
	case TermConst:
		return "const"
	case TermApp:
		return "app"
	default:
		return "unknown"
	}
}

// Term is a single immutable node in the term arena.
//
// Variable: Name is the display name, Index is FreeIndex for free variables
// or a de Bruijn index (0 = innermost enclosing binder) for bound ones.
// Constant: Name is the constant symbol (numerals are constants too).
// App: Name is the function symbol, Args the argument IDs.
//
// Callers must not modify Args; nodes are shared.
type Term struct {
	Kind  TermKind
	Name  string
	Index int
	Args  []TermID
}

// Bound reports whether the term is a variable bound by a quantifier.
func (t Term) Bound() bool { return t.Kind == TermVar && t.Index >= 0 }

// FreeVar reports whether the term is a free (unbound) variable.
func (t Term) FreeVar() bool { return t.Kind == TermVar && t.Index == FreeIndex }

// MetaVar reports whether the term is a pattern metavariable (a free
// variable whose name starts with '?'). Metavariables appear only in rule
// patterns, never in parsed user input.
func (t Term) MetaVar() bool {
	return t.FreeVar() && len(t.Name) > 0 && t.Name[0] == '?'
}
