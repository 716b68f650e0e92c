package logic

import (
	"strconv"
	"strings"
	"sync"
)

// =============================================================================
// FORMULA ARENA
// =============================================================================

// Arena owns every term and formula node of one logical workspace. Nodes are
// interned: constructing a structurally identical node returns the existing
// ID, so identical subtrees are stored once and ID equality implies
// structural equality (the converse holds only up to display names; use
// Equal for alpha-aware comparison).
//
// Nodes are immutable once created. The arena is safe for concurrent use;
// a single RWMutex guards the append-only node tables and the memoized
// canonical forms.
type Arena struct {
	mu       sync.RWMutex
	terms    []Term
	formulas []Formula
	termIdx  map[string]TermID
	formIdx  map[string]FormulaID
	canon    map[FormulaID]string
	hashes   map[FormulaID]ContentHash
	sigs     *SignatureTable
	fresh    int64
}

// NewArena creates an empty arena with a fresh signature table.
func NewArena() *Arena {
	return &Arena{
		termIdx: make(map[string]TermID),
		formIdx: make(map[string]FormulaID),
		canon:   make(map[FormulaID]string),
		hashes:  make(map[FormulaID]ContentHash),
		sigs:    NewSignatureTable(),
	}
}

// Signatures returns the arena's function/predicate signature table.
func (a *Arena) Signatures() *SignatureTable { return a.sigs }

// Term returns the term node for id. The returned struct shares its Args
// slice with the arena; callers must not modify it.
func (a *Arena) Term(id TermID) Term {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.terms[id]
}

// Formula returns the formula node for id. The returned struct shares its
// slices with the arena; callers must not modify them.
func (a *Arena) Formula(id FormulaID) Formula {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.formulas[id]
}

// NumTerms returns the number of interned terms.
func (a *Arena) NumTerms() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.terms)
}

// NumFormulas returns the number of interned formulas.
func (a *Arena) NumFormulas() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.formulas)
}

// =============================================================================
// TERM CONSTRUCTORS
// =============================================================================

// MkVar interns a variable. index is FreeIndex for free variables or a de
// Bruijn index for bound ones.
func (a *Arena) MkVar(name string, index int) TermID {
	return a.internTerm(Term{Kind: TermVar, Name: name, Index: index})
}

// MkFreeVar interns a free variable identified by name.
func (a *Arena) MkFreeVar(name string) TermID { return a.MkVar(name, FreeIndex) }

// MkConst interns a constant.
func (a *Arena) MkConst(name string) TermID {
	return a.internTerm(Term{Kind: TermConst, Name: name, Index: FreeIndex})
}

// MkApp interns a function application. Arity is recorded in the signature
// table on first use; parsers surface arity conflicts as validation errors
// before construction.
func (a *Arena) MkApp(sym string, args ...TermID) TermID {
	a.sigs.observeFunc(sym, len(args))
	return a.internTerm(Term{Kind: TermApp, Name: sym, Index: FreeIndex, Args: args})
}

// FreshVar interns a free variable with a name no surface syntax can
// produce ('$' prefixed). Used to standardize apart during unification.
func (a *Arena) FreshVar(prefix string) TermID {
	a.mu.Lock()
	a.fresh++
	n := a.fresh
	a.mu.Unlock()
	return a.MkFreeVar("$" + prefix + strconv.FormatInt(n, 10))
}

// FreshConst interns a constant with a name no surface syntax can produce.
// Used for Skolemization and existential instantiation.
func (a *Arena) FreshConst(prefix string) TermID {
	a.mu.Lock()
	a.fresh++
	n := a.fresh
	a.mu.Unlock()
	return a.MkConst("$" + prefix + strconv.FormatInt(n, 10))
}

// =============================================================================
// FORMULA CONSTRUCTORS
// =============================================================================

// MkAtom interns a predicate application.
func (a *Arena) MkAtom(sym string, args ...TermID) FormulaID {
	a.sigs.observePred(sym, len(args))
	return a.internFormula(Formula{Kind: KindAtom, Sym: sym, Agent: NoTerm, Args: args})
}

// MkNot interns a negation.
func (a *Arena) MkNot(f FormulaID) FormulaID {
	return a.internFormula(Formula{Kind: KindNot, Agent: NoTerm, Subs: []FormulaID{f}})
}

// MkAnd interns a binary conjunction.
func (a *Arena) MkAnd(l, r FormulaID) FormulaID {
	return a.internFormula(Formula{Kind: KindAnd, Agent: NoTerm, Subs: []FormulaID{l, r}})
}

// MkOr interns a binary disjunction.
func (a *Arena) MkOr(l, r FormulaID) FormulaID {
	return a.internFormula(Formula{Kind: KindOr, Agent: NoTerm, Subs: []FormulaID{l, r}})
}

// MkImplies interns an implication.
func (a *Arena) MkImplies(l, r FormulaID) FormulaID {
	return a.internFormula(Formula{Kind: KindImplies, Agent: NoTerm, Subs: []FormulaID{l, r}})
}

// MkIff interns a biconditional.
func (a *Arena) MkIff(l, r FormulaID) FormulaID {
	return a.internFormula(Formula{Kind: KindIff, Agent: NoTerm, Subs: []FormulaID{l, r}})
}

// MkQuantifier interns a quantified formula. hint is the original variable
// name, kept for display only; occurrences in body refer to this binder by
// de Bruijn index 0.
func (a *Arena) MkQuantifier(k QuantKind, hint string, body FormulaID) FormulaID {
	return a.internFormula(Formula{Kind: KindQuantifier, Op: uint8(k), Sym: hint, Agent: NoTerm, Subs: []FormulaID{body}})
}

// MkModal interns a modal formula.
func (a *Arena) MkModal(k ModalKind, body FormulaID) FormulaID {
	return a.internFormula(Formula{Kind: KindModal, Op: uint8(k), Agent: NoTerm, Subs: []FormulaID{body}})
}

// MkTemporal interns a temporal formula. second must be NoFormula for the
// unary operators and a valid ID for Until/Since.
func (a *Arena) MkTemporal(k TemporalKind, first, second FormulaID) FormulaID {
	subs := []FormulaID{first}
	if k.Binary() {
		subs = append(subs, second)
	}
	return a.internFormula(Formula{Kind: KindTemporal, Op: uint8(k), Agent: NoTerm, Subs: subs})
}

// MkDeontic interns a deontic formula over an acting agent and an action
// formula.
func (a *Arena) MkDeontic(k DeonticKind, agent TermID, action FormulaID) FormulaID {
	return a.internFormula(Formula{Kind: KindDeontic, Op: uint8(k), Agent: agent, Subs: []FormulaID{action}})
}

// MkCognitive interns a cognitive formula. agent must be NoTerm for Common
// and a valid term otherwise.
func (a *Arena) MkCognitive(k CognitiveKind, agent TermID, body FormulaID) FormulaID {
	if k == Common {
		agent = NoTerm
	}
	return a.internFormula(Formula{Kind: KindCognitive, Op: uint8(k), Agent: agent, Subs: []FormulaID{body}})
}

// MkMeta interns a formula metavariable. name includes the '?' prefix.
func (a *Arena) MkMeta(name string) FormulaID {
	return a.internFormula(Formula{Kind: KindMeta, Sym: name, Agent: NoTerm})
}

// =============================================================================
// INTERNING
// =============================================================================

func (a *Arena) internTerm(t Term) TermID {
	key := termKey(t)
	a.mu.RLock()
	if id, ok := a.termIdx[key]; ok {
		a.mu.RUnlock()
		return id
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.termIdx[key]; ok {
		return id
	}
	id := TermID(len(a.terms))
	a.terms = append(a.terms, t)
	a.termIdx[key] = id
	return id
}

func (a *Arena) internFormula(f Formula) FormulaID {
	key := formulaKey(f)
	a.mu.RLock()
	if id, ok := a.formIdx[key]; ok {
		a.mu.RUnlock()
		return id
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.formIdx[key]; ok {
		return id
	}
	id := FormulaID(len(a.formulas))
	a.formulas = append(a.formulas, f)
	a.formIdx[key] = id
	return id
}

// termKey builds the interning key. Identifier syntax excludes '|', so the
// separator cannot collide with symbol names.
func termKey(t Term) string {
	var b strings.Builder
	b.WriteByte(byte('0' + t.Kind))
	b.WriteByte('|')
	b.WriteString(t.Name)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(t.Index))
	for _, arg := range t.Args {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(int64(arg), 10))
	}
	return b.String()
}

func formulaKey(f Formula) string {
	var b strings.Builder
	b.WriteByte(byte('0' + f.Kind))
	b.WriteByte('|')
	b.WriteByte(byte('0' + f.Op))
	b.WriteByte('|')
	b.WriteString(f.Sym)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(int64(f.Agent), 10))
	for _, arg := range f.Args {
		b.WriteByte('|')
		b.WriteByte('t')
		b.WriteString(strconv.FormatInt(int64(arg), 10))
	}
	for _, sub := range f.Subs {
		b.WriteByte('|')
		b.WriteByte('f')
		b.WriteString(strconv.FormatInt(int64(sub), 10))
	}
	return b.String()
}

// =============================================================================
// CROSS-ARENA IMPORT
// =============================================================================

// ImportTerm deep-copies a term from src into a, returning the local ID.
func (a *Arena) ImportTerm(src *Arena, id TermID) TermID {
	if id == NoTerm {
		return NoTerm
	}
	t := src.Term(id)
	switch t.Kind {
	case TermApp:
		args := make([]TermID, len(t.Args))
		for i, arg := range t.Args {
			args[i] = a.ImportTerm(src, arg)
		}
		return a.MkApp(t.Name, args...)
	case TermConst:
		return a.MkConst(t.Name)
	default:
		return a.MkVar(t.Name, t.Index)
	}
}

// Import deep-copies a formula from src into a, returning the local ID.
// De Bruijn structure is preserved exactly.
func (a *Arena) Import(src *Arena, id FormulaID) FormulaID {
	f := src.Formula(id)
	agent := a.ImportTerm(src, f.Agent)
	var args []TermID
	if len(f.Args) > 0 {
		args = make([]TermID, len(f.Args))
		for i, arg := range f.Args {
			args[i] = a.ImportTerm(src, arg)
		}
	}
	var subs []FormulaID
	if len(f.Subs) > 0 {
		subs = make([]FormulaID, len(f.Subs))
		for i, sub := range f.Subs {
			subs[i] = a.Import(src, sub)
		}
	}
	if f.Kind == KindAtom {
		return a.MkAtom(f.Sym, args...)
	}
	return a.internFormula(Formula{Kind: f.Kind, Op: f.Op, Sym: f.Sym, Agent: agent, Args: args, Subs: subs})
}

// =============================================================================
// TRAVERSAL
// =============================================================================

// Walk visits f and every sub-formula in preorder. The visitor returns
// false to prune descent below the current node.
func (a *Arena) Walk(f FormulaID, visit func(FormulaID, Formula) bool) {
	node := a.Formula(f)
	if !visit(f, node) {
		return
	}
	for _, sub := range node.Subs {
		a.Walk(sub, visit)
	}
}
