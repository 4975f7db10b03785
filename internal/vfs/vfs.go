// Package vfs presents one uniform entry-listing/read/write contract over
// the real filesystem and any chain of mounted archives. Every other
// component addresses entries through a Path; only mutation reveals the
// asymmetry between the two backing stores, surfaced as typed errors.
package vfs

import (
	"errors"
	"io"
	"os"
	gopath "path"
	"strings"
	"sync"
	"syscall"
	"time"

	"noxcmd/internal/archive"
	"noxcmd/internal/errs"
)

// Options configure listing behavior.
type Options struct {
	ShowHidden bool
	Sort       SortMode
}

// VFS unifies the real filesystem and zero-or-more mounted archives.
type VFS struct {
	mu     sync.Mutex
	opts   Options
	mounts *mountTable
}

func New(opts Options) *VFS {
	return &VFS{opts: opts, mounts: newMountTable()}
}

func (v *VFS) SetShowHidden(show bool) {
	v.mu.Lock()
	v.opts.ShowHidden = show
	v.mu.Unlock()
}

func (v *VFS) SetSortMode(mode SortMode) {
	v.mu.Lock()
	v.opts.Sort = mode
	v.mu.Unlock()
}

func (v *VFS) options() Options {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opts
}

// List returns the sorted entries of the directory (or mounted archive
// directory) at p, honoring the hidden-entry display filter.
func (v *VFS) List(p Path) ([]Entry, error) {
	opts := v.options()
	entries, err := v.ListAll(p)
	if err != nil {
		return nil, err
	}
	if !opts.ShowHidden {
		kept := entries[:0]
		for _, e := range entries {
			if !strings.HasPrefix(e.Name, ".") {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	return entries, nil
}

// ListAll lists without the hidden-entry filter. File operations walk
// with this so dotfiles are copied and deleted along with everything
// else.
func (v *VFS) ListAll(p Path) ([]Entry, error) {
	var entries []Entry
	var err error
	if p.IsMounted() {
		entries, err = v.listMounted(p)
	} else {
		entries, err = listReal(p)
	}
	if err != nil {
		return nil, err
	}
	sortEntries(entries, v.options().Sort)
	return entries, nil
}

func listReal(p Path) ([]Entry, error) {
	real := p.Real()
	des, err := os.ReadDir(real)
	if err != nil {
		if errors.Is(err, syscall.ENOTDIR) {
			return nil, errs.Wrap(errs.NotADirectory, real, err)
		}
		return nil, errs.FromOS(real, err)
	}
	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		info, err := de.Info()
		if err != nil {
			// Entry vanished between ReadDir and Lstat; drop it.
			continue
		}
		entries = append(entries, realEntry(p.Join(de.Name()), de.Name(), info))
	}
	return entries, nil
}

func realEntry(p Path, name string, info os.FileInfo) Entry {
	e := Entry{Name: name, ModTime: info.ModTime(), Mode: info.Mode(), Path: p}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		e.Kind = KindSymlink
		e.LinkTarget, _ = os.Readlink(p.Real())
	case info.IsDir():
		e.Kind = KindDirectory
	default:
		e.Size = info.Size()
		if format, ok := archive.Detect(name); ok {
			e.Kind = KindArchive
			e.Format = format
		} else {
			e.Kind = KindFile
		}
	}
	return e
}

func (v *VFS) listMounted(p Path) ([]Entry, error) {
	h, internal, err := v.mounts.acquire(p)
	if err != nil {
		return nil, err
	}
	defer v.mounts.release(p)
	raw, err := h.List(internal)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, ae := range raw {
		entries = append(entries, mountedEntry(p.Join(ae.Name), ae))
	}
	return entries, nil
}

func mountedEntry(p Path, ae archive.Entry) Entry {
	e := Entry{Name: ae.Name, Size: ae.Size, ModTime: ae.ModTime, Path: p}
	switch {
	case ae.Dir:
		e.Kind = KindDirectory
		e.Size = 0
	case ae.Link != "":
		e.Kind = KindSymlink
		e.LinkTarget = ae.Link
	default:
		if format, ok := archive.Detect(ae.Name); ok {
			e.Kind = KindArchive
			e.Format = format
		} else {
			e.Kind = KindFile
		}
	}
	return e
}

// Stat resolves one path to its entry snapshot.
func (v *VFS) Stat(p Path) (Entry, error) {
	if p.IsRoot() {
		return Entry{Name: "/", Kind: KindDirectory, Path: p}, nil
	}
	if p.IsMounted() {
		if p.AtArchiveRoot() {
			// The archive root lists as a directory view of the container.
			last := p.mounts[len(p.mounts)-1]
			return Entry{Name: p.Base(), Kind: KindDirectory, Path: p, Format: last.Format}, nil
		}
		h, internal, err := v.mounts.acquire(p)
		if err != nil {
			return Entry{}, err
		}
		defer v.mounts.release(p)
		ae, err := h.Stat(internal)
		if err != nil {
			return Entry{}, err
		}
		return mountedEntry(p, ae), nil
	}
	info, err := os.Lstat(p.Real())
	if err != nil {
		return Entry{}, errs.FromOS(p.Real(), err)
	}
	return realEntry(p, p.Base(), info), nil
}

type mountedReader struct {
	pr   *io.PipeReader
	v    *VFS
	p    Path
	once sync.Once
}

func (r *mountedReader) Read(b []byte) (int, error) { return r.pr.Read(b) }

func (r *mountedReader) Close() error {
	err := r.pr.Close()
	r.once.Do(func() { r.v.mounts.release(r.p) })
	return err
}

// Read opens a byte stream for the entry at p. Archive-mounted paths
// stream through the adapter's extraction; the mount stays referenced
// until the reader is closed.
func (v *VFS) Read(p Path) (io.ReadCloser, error) {
	if !p.IsMounted() {
		f, err := os.Open(p.Real())
		if err != nil {
			return nil, errs.FromOS(p.Real(), err)
		}
		return f, nil
	}
	h, internal, err := v.mounts.acquire(p)
	if err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(h.Extract(internal, pw))
	}()
	return &mountedReader{pr: pr, v: v, p: p}, nil
}

// Write stores the stream at p. Real paths are written directly; a
// failed or interrupted write removes the partial file. Archive-mounted
// destinations delegate to append, which fails with ReadOnlyArchive for
// formats that cannot be incrementally modified.
func (v *VFS) Write(p Path, src io.Reader) error {
	if p.IsMounted() {
		if len(p.mounts) > 1 {
			// A nested archive is backed by a transient extraction;
			// rewriting it would never reach the outer container, so the
			// write must be refused rather than silently discarded.
			return errs.New(errs.ReadOnlyArchive, p.String())
		}
		h, internal, err := v.mounts.acquire(p)
		if err != nil {
			return err
		}
		defer v.mounts.release(p)
		return h.Append(internal, src, time.Now())
	}
	dst, err := os.Create(p.Real())
	if err != nil {
		return errs.FromOS(p.Real(), err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(p.Real())
		return errs.Wrap(errs.IO, p.Real(), err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(p.Real())
		return errs.FromOS(p.Real(), err)
	}
	return nil
}

// MakeDir creates a directory on the real filesystem. Archives are not
// directly mutable directory structures beyond append.
func (v *VFS) MakeDir(p Path) error {
	if p.IsMounted() {
		return errs.New(errs.UnsupportedInArchive, p.String())
	}
	if err := os.Mkdir(p.Real(), 0o755); err != nil {
		return errs.FromOS(p.Real(), err)
	}
	return nil
}

// Remove deletes one file or empty directory on the real filesystem.
func (v *VFS) Remove(p Path) error {
	if p.IsMounted() {
		return errs.New(errs.UnsupportedInArchive, p.String())
	}
	if err := os.Remove(p.Real()); err != nil {
		return errs.FromOS(p.Real(), err)
	}
	return nil
}

// Rename gives the entry at p a new name within its directory.
func (v *VFS) Rename(p Path, newName string) error {
	if p.IsMounted() {
		return errs.New(errs.UnsupportedInArchive, p.String())
	}
	dst := gopath.Join(gopath.Dir(p.Real()), newName)
	if _, err := os.Lstat(dst); err == nil {
		return errs.Newf(errs.IO, dst, "an entry named %q already exists", newName)
	}
	if err := os.Rename(p.Real(), dst); err != nil {
		return errs.FromOS(p.Real(), err)
	}
	return nil
}

// RenameTo moves src to dst with one atomic rename. Both paths must be
// real; callers fall back to copy+remove when the volumes differ.
func (v *VFS) RenameTo(src, dst Path) error {
	if src.IsMounted() || dst.IsMounted() {
		return errs.New(errs.UnsupportedInArchive, src.String())
	}
	if err := os.Rename(src.Real(), dst.Real()); err != nil {
		return errs.FromOS(src.Real(), err)
	}
	return nil
}

// IsCrossDevice reports whether err is the kernel's refusal to rename
// across volumes.
func IsCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// RetainPath pins every archive handle the path crosses, so repeated
// navigation and reads do not re-decode the containers. Pair with
// ReleasePath.
func (v *VFS) RetainPath(p Path) error {
	if !p.IsMounted() {
		return nil
	}
	_, _, err := v.mounts.acquire(p)
	return err
}

// ReleasePath undoes one RetainPath.
func (v *VFS) ReleasePath(p Path) {
	if !p.IsMounted() {
		return
	}
	v.mounts.release(p)
}

// ResolveMount returns the innermost archive handle backing p, pinning
// the chain; callers must ReleasePath when done with the handle.
func (v *VFS) ResolveMount(p Path) (*archive.Handle, error) {
	if !p.IsMounted() {
		return nil, errs.New(errs.Unknown, p.String())
	}
	h, _, err := v.mounts.acquire(p)
	return h, err
}

// OpenMounts reports how many archive handles are currently alive.
func (v *VFS) OpenMounts() int { return v.mounts.open() }
