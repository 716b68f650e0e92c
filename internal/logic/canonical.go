package logic

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// CANONICAL FORM & CONTENT HASHING
// =============================================================================

// ContentHash is the 256-bit digest of a formula's canonical form. Two
// formulas have equal hashes exactly when they are alpha-equivalent up to
// And/Or operand order.
type ContentHash [32]byte

// String returns the full hex form of the hash.
func (h ContentHash) String() string { return hex.EncodeToString(h[:]) }

// Short returns an 8-character hex prefix, for logs and proof rendering.
func (h ContentHash) Short() string { return hex.EncodeToString(h[:4]) }

// HashBytes digests raw canonical bytes.
func HashBytes(b []byte) ContentHash { return sha256.Sum256(b) }

// Canonical returns the canonical serialization of f: bound variables are
// renamed v0, v1, ... by binding depth, and And/Or operand lists are
// flattened and sorted by their canonical serializations. The result is
// valid native syntax, so canonicalize(parse(canonicalize(f))) is a fixed
// point. Results are memoized per node.
func (a *Arena) Canonical(f FormulaID) string {
	a.mu.RLock()
	if s, ok := a.canon[f]; ok {
		a.mu.RUnlock()
		return s
	}
	a.mu.RUnlock()

	s := a.canonFormula(f, 0)
	h := HashBytes([]byte(s))

	a.mu.Lock()
	a.canon[f] = s
	a.hashes[f] = h
	a.mu.Unlock()
	return s
}

// Hash returns the ContentHash of f's canonical form, computing and
// memoizing it on first use.
func (a *Arena) Hash(f FormulaID) ContentHash {
	a.mu.RLock()
	if h, ok := a.hashes[f]; ok {
		a.mu.RUnlock()
		return h
	}
	a.mu.RUnlock()

	a.Canonical(f)

	a.mu.RLock()
	h := a.hashes[f]
	a.mu.RUnlock()
	return h
}

// Equal reports alpha-equivalence up to And/Or operand order. Identical IDs
// short-circuit; otherwise canonical hashes are compared.
func (a *Arena) Equal(f, g FormulaID) bool {
	if f == g {
		return true
	}
	return a.Hash(f) == a.Hash(g)
}

func (a *Arena) canonFormula(id FormulaID, depth int) string {
	f := a.Formula(id)
	switch f.Kind {
	case KindAtom:
		return a.canonAtom(f, depth)
	case KindNot:
		return "~" + a.canonFormula(f.Subs[0], depth)
	case KindAnd, KindOr:
		return a.canonNary(id, f.Kind, depth)
	case KindImplies:
		return "(" + a.canonFormula(f.Subs[0], depth) + " -> " + a.canonFormula(f.Subs[1], depth) + ")"
	case KindIff:
		return "(" + a.canonFormula(f.Subs[0], depth) + " <-> " + a.canonFormula(f.Subs[1], depth) + ")"
	case KindQuantifier:
		v := "v" + strconv.Itoa(depth)
		return "(" + f.Quant().String() + " " + v + ". " + a.canonFormula(f.Subs[0], depth+1) + ")"
	case KindModal:
		return f.Modal().String() + "(" + a.canonFormula(f.Subs[0], depth) + ")"
	case KindTemporal:
		k := f.Temporal()
		if k.Binary() {
			return k.String() + "(" + a.canonFormula(f.Subs[0], depth) + ", " + a.canonFormula(f.Subs[1], depth) + ")"
		}
		return k.String() + "(" + a.canonFormula(f.Subs[0], depth) + ")"
	case KindDeontic:
		return f.Deontic().String() + "[" + a.canonTerm(f.Agent, depth) + "](" + a.canonFormula(f.Subs[0], depth) + ")"
	case KindCognitive:
		k := f.Cognitive()
		if k == Common {
			return "Common(" + a.canonFormula(f.Subs[0], depth) + ")"
		}
		return k.String() + "[" + a.canonTerm(f.Agent, depth) + "](" + a.canonFormula(f.Subs[0], depth) + ")"
	case KindMeta:
		return f.Sym
	default:
		return "<invalid>"
	}
}

func (a *Arena) canonAtom(f Formula, depth int) string {
	if len(f.Args) == 0 {
		return f.Sym
	}
	var b strings.Builder
	b.WriteString(f.Sym)
	b.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.canonTerm(arg, depth))
	}
	b.WriteByte(')')
	return b.String()
}

// canonNary flattens a chain of same-kind And/Or nodes and emits the
// operands sorted by their canonical serializations. Sorting by the
// serialized bytes induces the same total order as sorting by content hash
// (equal bytes, equal hash) while keeping the output readable.
func (a *Arena) canonNary(id FormulaID, kind FormulaKind, depth int) string {
	var leaves []FormulaID
	var flatten func(FormulaID)
	flatten = func(cur FormulaID) {
		f := a.Formula(cur)
		if f.Kind == kind {
			flatten(f.Subs[0])
			flatten(f.Subs[1])
			return
		}
		leaves = append(leaves, cur)
	}
	flatten(id)

	parts := make([]string, len(leaves))
	for i, leaf := range leaves {
		parts[i] = a.canonFormula(leaf, depth)
	}
	sort.Strings(parts)

	sep := " & "
	if kind == KindOr {
		sep = " | "
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (a *Arena) canonTerm(id TermID, depth int) string {
	if id == NoTerm {
		return ""
	}
	t := a.Term(id)
	switch t.Kind {
	case TermVar:
		if t.Index == FreeIndex {
			return t.Name
		}
		binder := depth - 1 - t.Index
		if binder < 0 {
			// Dangling index: only reachable when canonicalizing a bare
			// quantifier body, which the engine never stores as a fact.
			return "u" + strconv.Itoa(t.Index-depth)
		}
		return "v" + strconv.Itoa(binder)
	case TermConst:
		return t.Name
	case TermApp:
		var b strings.Builder
		b.WriteString(t.Name)
		b.WriteByte('(')
		for i, arg := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.canonTerm(arg, depth))
		}
		b.WriteByte(')')
		return b.String()
	default:
		return "<invalid>"
	}
}
