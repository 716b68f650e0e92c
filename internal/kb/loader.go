package kb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"noesis/internal/logic"
	"noesis/internal/syntax"
)

// Store holds named axiom sets loaded from a directory of .tdfol files.
// Each file becomes one named set (the base name without extension).
// Reload swaps whole snapshots; readers always see a complete set.
type Store struct {
	mu     sync.RWMutex
	arena  *logic.Arena
	sets   map[string]*Snapshot
	logger *zap.Logger
}

// NewStore creates an empty axiom store over the given arena.
func NewStore(arena *logic.Arena, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{arena: arena, sets: make(map[string]*Snapshot), logger: logger}
}

// Arena returns the store's arena.
func (s *Store) Arena() *logic.Arena { return s.arena }

// Get returns a named axiom set.
func (s *Store) Get(name string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sets[name]
	return snap, ok
}

// Put installs or replaces a named axiom set.
func (s *Store) Put(name string, snap *Snapshot) {
	s.mu.Lock()
	s.sets[name] = snap
	s.mu.Unlock()
}

// Remove drops a named axiom set.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	delete(s.sets, name)
	s.mu.Unlock()
}

// Names lists the loaded set names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sets))
	for name := range s.sets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Merged returns one snapshot holding the union of every loaded set.
func (s *Store) Merged() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []logic.FormulaID
	for _, name := range s.namesLocked() {
		all = append(all, s.sets[name].Formulas()...)
	}
	return NewSnapshot(s.arena, all...)
}

func (s *Store) namesLocked() []string {
	out := make([]string, 0, len(s.sets))
	for name := range s.sets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadDir loads every .tdfol file under dir into the store. Returns the
// number of files loaded. A file that fails to parse is skipped with a
// logged warning; the other files still load.
func (s *Store) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading axiom dir: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tdfol") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := s.LoadFile(path); err != nil {
			s.logger.Warn("skipping axiom file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// LoadFile parses one .tdfol axiom file and installs it as a named set.
// Format: one native-syntax formula per line; blank lines and '#'
// comments are ignored.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), ".tdfol")
	var axioms []logic.FormulaID
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		formula, err := syntax.ParseNative(s.arena, line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		axioms = append(axioms, formula)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	s.Put(name, NewSnapshot(s.arena, axioms...))
	s.logger.Debug("loaded axiom set",
		zap.String("set", name),
		zap.Int("axioms", len(axioms)))
	return nil
}
