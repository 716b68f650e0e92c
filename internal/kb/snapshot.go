// Package kb manages knowledge-base snapshots: immutable, content-hashed
// axiom sets, a directory loader for .tdfol axiom files, and a watcher
// that hot-reloads changed files.
package kb

import (
	"sort"
	"strings"

	"noesis/internal/logic"
)

// Snapshot is an immutable axiom set. Extend never mutates the receiver;
// it returns a new snapshot sharing the existing backing array, so
// concurrent searches over older snapshots never observe partial state.
type Snapshot struct {
	arena    *logic.Arena
	formulas []logic.FormulaID
	seen     map[logic.ContentHash]bool
	hash     logic.ContentHash
}

// NewSnapshot builds a snapshot over the given axioms. Alpha-equivalent
// duplicates are dropped.
func NewSnapshot(a *logic.Arena, axioms ...logic.FormulaID) *Snapshot {
	s := &Snapshot{arena: a, seen: make(map[logic.ContentHash]bool, len(axioms))}
	for _, f := range axioms {
		h := a.Hash(f)
		if s.seen[h] {
			continue
		}
		s.seen[h] = true
		s.formulas = append(s.formulas, f)
	}
	s.hash = setHash(a, s.formulas)
	return s
}

// Arena returns the arena the snapshot's formulas live in.
func (s *Snapshot) Arena() *logic.Arena { return s.arena }

// Formulas returns the axiom list. Callers must not modify it.
func (s *Snapshot) Formulas() []logic.FormulaID { return s.formulas }

// Len returns the number of axioms.
func (s *Snapshot) Len() int { return len(s.formulas) }

// Contains reports whether an alpha-equivalent formula is in the set.
func (s *Snapshot) Contains(f logic.FormulaID) bool {
	return s.seen[s.arena.Hash(f)]
}

// Hash is the content hash of the whole axiom set: the digest of the
// sorted canonical forms. Order of addition does not matter.
func (s *Snapshot) Hash() logic.ContentHash { return s.hash }

// Extend returns a snapshot with the extra formulas added (copy on
// extend). The receiver is unchanged. Duplicates are dropped.
func (s *Snapshot) Extend(extra ...logic.FormulaID) *Snapshot {
	fresh := make([]logic.FormulaID, 0, len(extra))
	for _, f := range extra {
		h := s.arena.Hash(f)
		if s.seen[h] {
			continue
		}
		fresh = append(fresh, f)
	}
	if len(fresh) == 0 {
		return s
	}
	next := &Snapshot{
		arena: s.arena,
		seen:  make(map[logic.ContentHash]bool, len(s.seen)+len(fresh)),
	}
	for h := range s.seen {
		next.seen[h] = true
	}
	next.formulas = append(next.formulas[:0:0], s.formulas...)
	for _, f := range fresh {
		next.seen[s.arena.Hash(f)] = true
		next.formulas = append(next.formulas, f)
	}
	next.hash = setHash(s.arena, next.formulas)
	return next
}

func setHash(a *logic.Arena, formulas []logic.FormulaID) logic.ContentHash {
	forms := make([]string, len(formulas))
	for i, f := range formulas {
		forms[i] = a.Canonical(f)
	}
	sort.Strings(forms)
	return logic.HashBytes([]byte(strings.Join(forms, "\n")))
}
