package logic

// FormulaID is an arena index for a formula node.
type FormulaID int32

// NoFormula marks an absent formula reference.
const NoFormula FormulaID = -1

// FormulaKind discriminates the formula variants.
type FormulaKind uint8

const (
	KindAtom FormulaKind = iota
	KindNot
	KindAnd
	KindOr
	KindImplies
	KindIff
	KindQuantifier
	KindModal
	KindTemporal
	KindDeontic
	KindCognitive
	// KindMeta is a formula metavariable (?p) used in rule patterns. The
	// surface parsers reject it; only the pattern parser produces it.
	KindMeta
)

func (k FormulaKind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindNot:
		return "not"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindImplies:
		return "implies"
	case KindIff:
		return "iff"
	case KindQuantifier:
		return "quantifier"
	case KindModal:
		return "modal"
	case KindTemporal:
		return "temporal"
	case KindDeontic:
		return "deontic"
	case KindCognitive:
		return "cognitive"
	case KindMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// QuantKind selects the quantifier of a KindQuantifier node.
type QuantKind uint8

const (
	Forall QuantKind = iota
	Exists
)

func (k QuantKind) String() string {
	if k == Exists {
		return "exists"
	}
	return "forall"
}

// ModalKind selects the operator of a KindModal node.
type ModalKind uint8

const (
	Necessity ModalKind = iota
	Possibility
)

func (k ModalKind) String() string {
	if k == Possibility {
		return "Pos"
	}
	return "Nec"
}

// TemporalKind selects the operator of a KindTemporal node. Until and
// Since are binary; the rest are unary.
type TemporalKind uint8

const (
	Always TemporalKind = iota
	Eventually
	Next
	Until
	Since
)

func (k TemporalKind) String() string {
	switch k {
	case Eventually:
		return "Eventually"
	case Next:
		return "Next"
	case Until:
		return "Until"
	case Since:
		return "Since"
	default:
		return "Always"
	}
}

// Binary reports whether the temporal operator takes two operands.
func (k TemporalKind) Binary() bool { return k == Until || k == Since }

// DeonticKind selects the operator of a KindDeontic node.
type DeonticKind uint8

const (
	Obligatory DeonticKind = iota
	Permitted
	Forbidden
)

func (k DeonticKind) String() string {
	switch k {
	case Permitted:
		return "Permitted"
	case Forbidden:
		return "Forbidden"
	default:
		return "Obligatory"
	}
}

// CognitiveKind selects the operator of a KindCognitive node. Common
// (common knowledge) carries no agent; all others do.
type CognitiveKind uint8

const (
	Knows CognitiveKind = iota
	Believes
	Perceives
	Desires
	Intends
	Says
	Common
)

func (k CognitiveKind) String() string {
	switch k {
	case Believes:
		return "Believes"
	case Perceives:
		return "Perceives"
	case Desires:
		return "Desires"
	case Intends:
		return "Intends"
	case Says:
		return "Says"
	case Common:
		return "Common"
	default:
		return "Knows"
	}
}

// Formula is a single immutable node in the formula arena.
//
//	Atom:       Sym = predicate symbol, Args = term arguments.
//	Not:        Subs = [operand].
//	And/Or/Implies/Iff: Subs = [left, right].
//	Quantifier: Op = QuantKind, Sym = bound-variable display hint, Subs = [body].
//	Modal:      Op = ModalKind, Subs = [body].
//	Temporal:   Op = TemporalKind, Subs = [body] or [body, body2].
//	Deontic:    Op = DeonticKind, Agent = acting agent, Subs = [action].
//	Cognitive:  Op = CognitiveKind, Agent = agent (NoTerm for Common), Subs = [body].
//	Meta:       Sym = metavariable name including the '?' prefix.
//
// Callers must not modify Args or Subs; nodes are shared.
type Formula struct {
	Kind  FormulaKind
	Op    uint8
	Sym   string
	Agent TermID
	Args  []TermID
	Subs  []FormulaID
}

// Quant returns the quantifier kind of a KindQuantifier node.
func (f Formula) Quant() QuantKind { return QuantKind(f.Op) }

// Modal returns the modal kind of a KindModal node.
func (f Formula) Modal() ModalKind { return ModalKind(f.Op) }

// Temporal returns the temporal kind of a KindTemporal node.
func (f Formula) Temporal() TemporalKind { return TemporalKind(f.Op) }

// Deontic returns the deontic kind of a KindDeontic node.
func (f Formula) Deontic() DeonticKind { return DeonticKind(f.Op) }

// Cognitive returns the cognitive kind of a KindCognitive node.
func (f Formula) Cognitive() CognitiveKind { return CognitiveKind(f.Op) }

// Binary reports whether the node is one of the binary connectives.
func (f Formula) Binary() bool {
	switch f.Kind {
	case KindAnd, KindOr, KindImplies, KindIff:
		return true
	}
	return false
}
