package pane

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noxcmd/internal/vfs"
)

func newPane(t *testing.T, dir string) *State {
	t.Helper()
	return New(vfs.New(vfs.Options{}), vfs.FromReal(dir))
}

func populate(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		full := filepath.Join(dir, name)
		if filepath.Ext(name) == "" {
			require.NoError(t, os.MkdirAll(full, 0o755))
		} else {
			require.NoError(t, os.WriteFile(full, []byte(name), 0o644))
		}
	}
}

func TestListingHasParentEntry(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir, "sub", "a.txt", "b.txt")

	p := newPane(t, dir)
	entries := p.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, ParentName, entries[0].Name)
	assert.Equal(t, "sub", entries[1].Name)
	assert.Equal(t, "a.txt", entries[2].Name)
	assert.Equal(t, 0, p.Cursor())
}

func TestEnterAndGoParentStable(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir, "aaa", "bbb", "ccc")
	populate(t, filepath.Join(dir, "bbb"), "inner.txt")

	p := newPane(t, dir)
	// Cursor to "bbb" (index 2: .., aaa, bbb, ccc).
	p.CursorDown()
	p.CursorDown()
	require.True(t, p.Enter())
	assert.Equal(t, filepath.Join(dir, "bbb"), p.Location().String())
	require.Len(t, p.Entries(), 2)
	assert.Equal(t, 0, p.Cursor())

	before := p.Entries()
	p.GoParent()
	assert.Equal(t, dir, p.Location().String())
	// Cursor lands on the directory just left.
	cur, ok := p.CurrentEntry()
	require.True(t, ok)
	assert.Equal(t, "bbb", cur.Name)

	// Entering again yields an identical listing.
	require.True(t, p.Enter())
	after := p.Entries()
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].Name, after[i].Name)
		assert.Equal(t, before[i].Kind, after[i].Kind)
	}
}

func TestEnterPlainFileDoesNotNavigate(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir, "a.txt")

	p := newPane(t, dir)
	p.CursorDown()
	assert.False(t, p.Enter())
	assert.Equal(t, dir, p.Location().String())
}

func TestEnterArchiveMounts(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "a.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	fw, err := w.Create("inside.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	p := newPane(t, dir)
	p.CursorDown()
	cur, _ := p.CurrentEntry()
	require.Equal(t, vfs.KindArchive, cur.Kind)

	require.True(t, p.Enter())
	assert.True(t, p.Location().IsMounted())
	require.Len(t, p.Entries(), 2)
	assert.Equal(t, "inside.txt", p.Entries()[1].Name)

	p.GoParent()
	assert.False(t, p.Location().IsMounted())
	cur, _ = p.CurrentEntry()
	assert.Equal(t, "a.zip", cur.Name, "cursor lands on the archive just left")
}

func TestSelection(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir, "a.txt", "b.txt", "c.log")

	p := newPane(t, dir)
	// Parent entry is never selectable.
	p.Home()
	p.ToggleSelect()
	assert.Equal(t, 0, p.SelectionCount())

	p.CursorDown()
	p.ToggleSelect()
	assert.Equal(t, 1, p.SelectionCount())
	p.ToggleSelect()
	assert.Equal(t, 0, p.SelectionCount())

	p.SelectAll()
	assert.Equal(t, 3, p.SelectionCount())
	p.InvertSelection()
	assert.Equal(t, 0, p.SelectionCount())

	n, err := p.SelectGlob("*.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, p.SelectionCount())

	paths := p.SelectedPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, "a.txt", paths[0].Base())
	assert.Equal(t, "b.txt", paths[1].Base())
}

func TestSelectedPathsFallsBackToCursor(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir, "a.txt")

	p := newPane(t, dir)
	p.CursorDown()
	paths := p.SelectedPaths()
	require.Len(t, paths, 1)
	assert.Equal(t, "a.txt", paths[0].Base())

	p.Home()
	assert.Nil(t, p.SelectedPaths(), "parent entry is not a valid operand")
}

func TestRefreshPrunesVanishedSelection(t *testing.T) {
	dir := t.TempDir()
	populate(t, dir, "a.txt", "b.txt")

	p := newPane(t, dir)
	p.SelectAll()
	require.Equal(t, 2, p.SelectionCount())

	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	p.Refresh()
	assert.Equal(t, 1, p.SelectionCount())
	require.Len(t, p.Entries(), 2)
}

func TestListingErrorSurfacesEmpty(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "doomed")
	require.NoError(t, os.Mkdir(sub, 0o755))

	p := newPane(t, sub)
	require.NoError(t, p.Err())

	require.NoError(t, os.Remove(sub))
	p.Refresh()
	assert.Error(t, p.Err())
	require.Len(t, p.Entries(), 1, "only the synthetic parent remains")
	assert.Equal(t, ParentName, p.Entries()[0].Name)
	assert.Equal(t, 0, p.Cursor())
}

func TestCursorMovementClamps(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 26; i++ {
		populate(t, dir, fmt.Sprintf("f%02d.txt", i))
	}
	p := newPane(t, dir)

	p.CursorUp()
	assert.Equal(t, 0, p.Cursor())

	p.End()
	max := len(p.Entries()) - 1
	assert.Equal(t, max, p.Cursor())
	p.CursorDown()
	assert.Equal(t, max, p.Cursor())

	p.Home()
	p.PageDown(10)
	assert.Equal(t, 8, p.Cursor())
	p.PageUp(10)
	assert.Equal(t, 0, p.Cursor())
	p.PageUp(0)
	assert.Equal(t, 0, p.Cursor())
}

func TestEmptyRootNeverPanics(t *testing.T) {
	dir := t.TempDir()
	p := newPane(t, dir)
	require.Len(t, p.Entries(), 1)

	p.CursorUp()
	p.CursorDown()
	p.PageUp(10)
	p.PageDown(10)
	p.Home()
	p.End()
	assert.Equal(t, 0, p.Cursor())
	_, ok := p.CurrentEntry()
	assert.True(t, ok)
}
