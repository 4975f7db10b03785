package vfs

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noxcmd/internal/archive"
	"noxcmd/internal/errs"
)

func newTestZip(t *testing.T, dir string, files map[string]string) Path {
	t.Helper()
	path := filepath.Join(dir, "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return FromReal(path)
}

func newTestTar(t *testing.T, dir string, files map[string]string) Path {
	t.Helper()
	path := filepath.Join(dir, "test.tar")
	f, err := os.Create(path)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Size: int64(len(content)), Mode: 0o644,
			ModTime: time.Unix(1700000000, 0),
		}))
		_, err = tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())
	return FromReal(path)
}

func TestListRealSorted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zdir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Alpha.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.txt"), []byte("bb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("h"), 0o644))

	v := New(Options{})
	entries, err := v.List(FromReal(dir))
	require.NoError(t, err)
	require.Len(t, entries, 3, "hidden entries filtered by default")
	assert.Equal(t, "zdir", entries[0].Name, "directories sort first")
	assert.Equal(t, KindDirectory, entries[0].Kind)
	assert.Equal(t, "Alpha.txt", entries[1].Name)
	assert.Equal(t, "beta.txt", entries[2].Name)
	assert.Equal(t, int64(2), entries[2].Size)

	v.SetShowHidden(true)
	entries, err = v.List(FromReal(dir))
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestListErrors(t *testing.T) {
	v := New(Options{})
	_, err := v.List(FromReal(filepath.Join(t.TempDir(), "missing")))
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = v.List(FromReal(file))
	assert.Equal(t, errs.NotADirectory, errs.KindOf(err))
}

func TestArchiveEntryKind(t *testing.T) {
	dir := t.TempDir()
	newTestZip(t, dir, map[string]string{"a.txt": "x"})
	v := New(Options{})
	entries, err := v.List(FromReal(dir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindArchive, entries[0].Kind)
	assert.Equal(t, archive.FormatZip, entries[0].Format)
}

func TestMountedListScenario(t *testing.T) {
	dir := t.TempDir()
	zp := newTestZip(t, dir, map[string]string{
		"a.txt":     "0123456789",
		"sub/b.txt": "01234567890123456789",
	})
	v := New(Options{})
	zipRoot := zp.Mounted(archive.FormatZip)
	require.NoError(t, v.RetainPath(zipRoot))
	defer v.ReleasePath(zipRoot)

	entries, err := v.List(zipRoot)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sub", entries[0].Name)
	assert.Equal(t, KindDirectory, entries[0].Kind)
	assert.Equal(t, "a.txt", entries[1].Name)
	assert.Equal(t, int64(10), entries[1].Size)

	sub, err := v.List(zipRoot.Join("sub"))
	require.NoError(t, err)
	require.Len(t, sub, 1)
	assert.Equal(t, "b.txt", sub[0].Name)
	assert.Equal(t, int64(20), sub[0].Size)
}

func TestReadMountedMatchesContent(t *testing.T) {
	dir := t.TempDir()
	zp := newTestZip(t, dir, map[string]string{"a.txt": "payload-bytes"})
	v := New(Options{})
	p := zp.Mounted(archive.FormatZip).Join("a.txt")

	rc, err := v.Read(p)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload-bytes", string(data))
	assert.Equal(t, 0, v.OpenMounts(), "mount released when reader closes")
}

func TestWriteRealAndMounted(t *testing.T) {
	dir := t.TempDir()
	v := New(Options{})

	dst := FromReal(filepath.Join(dir, "out.txt"))
	require.NoError(t, v.Write(dst, strings.NewReader("hello")))
	data, err := os.ReadFile(dst.Real())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	zp := newTestZip(t, dir, map[string]string{"a.txt": "x"})
	inZip := zp.Mounted(archive.FormatZip).Join("added.txt")
	require.NoError(t, v.Write(inZip, strings.NewReader("inside")))

	rc, err := v.Read(inZip)
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "inside", string(data))

	tp := newTestTar(t, dir, map[string]string{"t.txt": "y"})
	inTar := tp.Mounted(archive.FormatTar).Join("new.txt")
	err = v.Write(inTar, strings.NewReader("z"))
	assert.Equal(t, errs.ReadOnlyArchive, errs.KindOf(err))
}

func TestWriteIntoNestedArchiveRejected(t *testing.T) {
	dir := t.TempDir()
	innerZip := newTestZip(t, dir, map[string]string{"deep.txt": "deep"})
	innerBytes, err := os.ReadFile(innerZip.Real())
	require.NoError(t, err)

	outerPath := filepath.Join(dir, "outer.zip")
	f, err := os.Create(outerPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	fw, err := w.Create("inner.zip")
	require.NoError(t, err)
	_, err = fw.Write(innerBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	v := New(Options{})
	outerRoot := FromReal(outerPath).Mounted(archive.FormatZip)
	innerRoot := outerRoot.Join("inner.zip").Mounted(archive.FormatZip)

	// The inner container is a transient extraction; a rewrite would be
	// discarded with the mount, so the write is refused outright.
	err = v.Write(innerRoot.Join("added.txt"), strings.NewReader("payload"))
	assert.Equal(t, errs.ReadOnlyArchive, errs.KindOf(err))

	require.NoError(t, v.RetainPath(innerRoot))
	inner, err := v.List(innerRoot)
	require.NoError(t, err)
	require.Len(t, inner, 1)
	assert.Equal(t, "deep.txt", inner[0].Name)
	v.ReleasePath(innerRoot)
}

func TestMutationRejectedInArchive(t *testing.T) {
	dir := t.TempDir()
	zp := newTestZip(t, dir, map[string]string{"a.txt": "x"})
	v := New(Options{})
	mounted := zp.Mounted(archive.FormatZip).Join("a.txt")

	assert.Equal(t, errs.UnsupportedInArchive, errs.KindOf(v.Remove(mounted)))
	assert.Equal(t, errs.UnsupportedInArchive, errs.KindOf(v.Rename(mounted, "b.txt")))
	assert.Equal(t, errs.UnsupportedInArchive, errs.KindOf(v.MakeDir(mounted.Parent().Join("d"))))
}

func TestMakeDirRemoveRename(t *testing.T) {
	dir := t.TempDir()
	v := New(Options{})

	d := FromReal(filepath.Join(dir, "newdir"))
	require.NoError(t, v.MakeDir(d))
	st, err := v.Stat(d)
	require.NoError(t, err)
	assert.Equal(t, KindDirectory, st.Kind)

	f := FromReal(filepath.Join(dir, "f.txt"))
	require.NoError(t, v.Write(f, strings.NewReader("1")))
	require.NoError(t, v.Rename(f, "g.txt"))
	_, err = v.Stat(f)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	// Renaming onto a taken name says so instead of a bare i/o error.
	h := FromReal(filepath.Join(dir, "h.txt"))
	require.NoError(t, v.Write(h, strings.NewReader("2")))
	err = v.Rename(h, "g.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	g := FromReal(filepath.Join(dir, "g.txt"))
	require.NoError(t, v.Remove(g))
	_, err = v.Stat(g)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	// Removing a non-empty directory fails at the filesystem call.
	require.NoError(t, v.Write(d.Join("child"), strings.NewReader("c")))
	assert.Error(t, v.Remove(d))
}

func TestMountRefcounting(t *testing.T) {
	dir := t.TempDir()
	zp := newTestZip(t, dir, map[string]string{"a.txt": "x"})
	v := New(Options{})
	root := zp.Mounted(archive.FormatZip)

	require.NoError(t, v.RetainPath(root))
	assert.Equal(t, 1, v.OpenMounts())

	// A second retain shares the same handle.
	require.NoError(t, v.RetainPath(root))
	assert.Equal(t, 1, v.OpenMounts())

	v.ReleasePath(root)
	assert.Equal(t, 1, v.OpenMounts())
	v.ReleasePath(root)
	assert.Equal(t, 0, v.OpenMounts())
}

func TestNestedArchiveListing(t *testing.T) {
	dir := t.TempDir()
	innerZip := newTestZip(t, dir, map[string]string{"deep.txt": "deep"})
	innerBytes, err := os.ReadFile(innerZip.Real())
	require.NoError(t, err)

	outerPath := filepath.Join(dir, "outer.zip")
	f, err := os.Create(outerPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	fw, err := w.Create("inner.zip")
	require.NoError(t, err)
	_, err = fw.Write(innerBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	v := New(Options{})
	outerRoot := FromReal(outerPath).Mounted(archive.FormatZip)

	entries, err := v.List(outerRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, KindArchive, entries[0].Kind)

	innerRoot := entries[0].Path.Mounted(archive.FormatZip)
	require.NoError(t, v.RetainPath(innerRoot))
	inner, err := v.List(innerRoot)
	require.NoError(t, err)
	require.Len(t, inner, 1)
	assert.Equal(t, "deep.txt", inner[0].Name)

	rc, err := v.Read(innerRoot.Join("deep.txt"))
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "deep", string(data))

	v.ReleasePath(innerRoot)
	assert.Equal(t, 0, v.OpenMounts())
}

func TestSortModes(t *testing.T) {
	entries := []Entry{
		{Name: "big", Kind: KindFile, Size: 100, ModTime: time.Unix(10, 0)},
		{Name: "small", Kind: KindFile, Size: 1, ModTime: time.Unix(30, 0)},
		{Name: "adir", Kind: KindDirectory, ModTime: time.Unix(20, 0)},
	}
	sortEntries(entries, SortSize)
	assert.Equal(t, []string{"adir", "big", "small"}, names(entries))

	sortEntries(entries, SortTime)
	assert.Equal(t, []string{"adir", "small", "big"}, names(entries))

	sortEntries(entries, SortName)
	assert.Equal(t, []string{"adir", "big", "small"}, names(entries))
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
