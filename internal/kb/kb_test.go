package kb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"noesis/internal/logic"
	"noesis/internal/syntax"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustParse(t *testing.T, a *logic.Arena, src string) logic.FormulaID {
	t.Helper()
	f, err := syntax.ParseNative(a, src)
	require.NoError(t, err, "parse %q", src)
	return f
}

func writeAxioms(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSnapshotDropsDuplicates(t *testing.T) {
	a := logic.NewArena()
	p := mustParse(t, a, "p(a)")
	q := mustParse(t, a, "q(a)")
	// Alpha-variant of the same universal.
	u1 := mustParse(t, a, "forall x. p(x)")
	u2 := mustParse(t, a, "forall y. p(y)")

	snap := NewSnapshot(a, p, q, p, u1, u2)
	assert.Equal(t, 3, snap.Len())
	assert.True(t, snap.Contains(u2))
}

func TestSnapshotHashIsOrderInsensitive(t *testing.T) {
	a := logic.NewArena()
	p := mustParse(t, a, "p(a)")
	q := mustParse(t, a, "q(b)")

	s1 := NewSnapshot(a, p, q)
	s2 := NewSnapshot(a, q, p)
	assert.Equal(t, s1.Hash(), s2.Hash())

	s3 := NewSnapshot(a, p)
	assert.NotEqual(t, s1.Hash(), s3.Hash())
}

func TestSnapshotExtendIsCopyOnExtend(t *testing.T) {
	a := logic.NewArena()
	p := mustParse(t, a, "p(a)")
	q := mustParse(t, a, "q(a)")

	base := NewSnapshot(a, p)
	ext := base.Extend(q)

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, ext.Len())
	assert.False(t, base.Contains(q))
	assert.True(t, ext.Contains(q))
	assert.NotEqual(t, base.Hash(), ext.Hash())

	// Extending with a duplicate returns the receiver unchanged.
	same := ext.Extend(p)
	assert.Same(t, ext, same)
}

func TestStoreLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeAxioms(t, dir, "contracts.tdfol", `
# deontic test axioms
p(a)
(p(a) -> q(a))

Obligatory[agent1](pay(agent1, 100))
`)

	store := NewStore(logic.NewArena(), nil)
	require.NoError(t, store.LoadFile(filepath.Join(dir, "contracts.tdfol")))

	snap, ok := store.Get("contracts")
	require.True(t, ok)
	assert.Equal(t, 3, snap.Len())
}

func TestStoreLoadFileReportsLineNumbers(t *testing.T) {
	dir := t.TempDir()
	path := writeAxioms(t, dir, "bad.tdfol", "p(a)\nforall x (p(x))\n")

	store := NewStore(logic.NewArena(), nil)
	err := store.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.tdfol:2")

	_, ok := store.Get("bad")
	assert.False(t, ok, "a file that fails to parse must not install a set")
}

func TestStoreLoadDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeAxioms(t, dir, "good.tdfol", "p(a)\n")
	writeAxioms(t, dir, "broken.tdfol", "p(a) &\n")
	writeAxioms(t, dir, "notes.txt", "not an axiom file\n")

	store := NewStore(logic.NewArena(), nil)
	loaded, err := store.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
	assert.Equal(t, []string{"good"}, store.Names())
}

func TestStoreMergedUnionsSets(t *testing.T) {
	dir := t.TempDir()
	writeAxioms(t, dir, "one.tdfol", "p(a)\nq(a)\n")
	writeAxioms(t, dir, "two.tdfol", "q(a)\nr(a)\n")

	store := NewStore(logic.NewArena(), nil)
	_, err := store.LoadDir(dir)
	require.NoError(t, err)

	merged := store.Merged()
	assert.Equal(t, 3, merged.Len(), "shared axioms merge once")
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeAxioms(t, dir, "live.tdfol", "p(a)\n")

	store := NewStore(logic.NewArena(), nil)
	require.NoError(t, store.LoadFile(path))

	w, err := NewWatcher(store, dir, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeAxioms(t, dir, "live.tdfol", "p(a)\nq(a)\n")

	require.Eventually(t, func() bool {
		snap, ok := store.Get("live")
		return ok && snap.Len() == 2
	}, 5*time.Second, 50*time.Millisecond, "watcher did not reload the changed file")
	assert.GreaterOrEqual(t, w.Stats().Reloads, 1)
}

func TestWatcherRemovesDeletedSet(t *testing.T) {
	dir := t.TempDir()
	path := writeAxioms(t, dir, "gone.tdfol", "p(a)\n")

	store := NewStore(logic.NewArena(), nil)
	require.NoError(t, store.LoadFile(path))

	w, err := NewWatcher(store, dir, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		_, ok := store.Get("gone")
		return !ok
	}, 5*time.Second, 50*time.Millisecond, "watcher did not drop the removed set")
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	store := NewStore(logic.NewArena(), nil)
	w, err := NewWatcher(store, t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
