// Package archive decodes ZIP and TAR/TAR.GZ containers into a
// lazily-opened, eagerly-indexed tree of entries. A Handle owns the
// decoded index for one container; extraction and append reopen the
// container file so the handle itself holds no file descriptors.
package archive

import (
	"io"
	"os"
	"time"

	"noxcmd/internal/errs"
	"noxcmd/internal/log"
)

// Entry is one directory entry inside an opened archive.
type Entry struct {
	Name    string
	Dir     bool
	Size    int64
	ModTime time.Time
	Link    string
}

// Handle owns the decoded index for one opened archive. The index is
// read-only after Open, so concurrent listings are safe; append rewrites
// are serialized by the operation engine's single-operation rule.
type Handle struct {
	container string // the archive file as addressed by the caller
	backing   string // seekable file that is actually indexed (tgz temp copy)
	format    Format
	root      *node
	transient bool // remove container on Close (nested archive temp copies)
}

// Open decodes the container at path and builds the entry index.
func Open(path string, format Format) (*Handle, error) {
	h := &Handle{container: path, backing: path, format: format}
	var err error
	switch format {
	case FormatZip:
		err = h.indexZip()
	case FormatTar:
		err = h.indexTar()
	case FormatTarGz:
		if h.backing, err = gunzipToTemp(path); err == nil {
			err = h.indexTar()
		}
	default:
		err = errs.New(errs.UnsupportedFormat, path)
	}
	if err != nil {
		h.Close()
		return nil, err
	}
	log.Debugf("archive: opened %s (%s)", path, format)
	return h, nil
}

// OpenTransient opens an archive that was itself extracted to a
// temporary file (an archive nested inside another archive). The backing
// file is removed when the handle is closed.
func OpenTransient(path string, format Format) (*Handle, error) {
	h, err := Open(path, format)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	h.transient = true
	return h, nil
}

func (h *Handle) Container() string { return h.container }
func (h *Handle) Format() Format    { return h.format }

// List returns the direct children of an internal directory path,
// "" meaning the archive root.
func (h *Handle) List(internal string) ([]Entry, error) {
	n := h.root.lookup(internal)
	if n == nil {
		return nil, errs.New(errs.NotFound, h.container+"/"+internal)
	}
	if !n.dir {
		return nil, errs.New(errs.NotADirectory, h.container+"/"+internal)
	}
	children := n.list()
	out := make([]Entry, 0, len(children))
	for _, c := range children {
		out = append(out, entryOf(c))
	}
	return out, nil
}

// Stat resolves one internal path to its entry.
func (h *Handle) Stat(internal string) (Entry, error) {
	n := h.root.lookup(internal)
	if n == nil {
		return Entry{}, errs.New(errs.NotFound, h.container+"/"+internal)
	}
	return entryOf(n), nil
}

// Extract streams the content of one file entry into sink.
func (h *Handle) Extract(internal string, sink io.Writer) error {
	n := h.root.lookup(internal)
	if n == nil || n.dir {
		return errs.New(errs.NotFound, h.container+"/"+internal)
	}
	switch h.format {
	case FormatZip:
		return h.extractZip(n.key, sink)
	default:
		return h.extractTar(n.key, sink)
	}
}

// ExtractTemp extracts one file entry to a fresh temporary file and
// returns its path. Used to mount archives nested inside this one.
func (h *Handle) ExtractTemp(internal string) (string, error) {
	tmp, err := os.CreateTemp("", "noxcmd-nested-*")
	if err != nil {
		return "", errs.Wrap(errs.IO, internal, err)
	}
	if err := h.Extract(internal, tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errs.Wrap(errs.IO, internal, err)
	}
	return tmp.Name(), nil
}

// Append inserts a new file entry at the internal path. Only ZIP
// containers can be modified; plain TAR and TAR.GZ would require
// rewriting an unseekable stream and are rejected.
func (h *Handle) Append(internal string, src io.Reader, modTime time.Time) error {
	switch h.format {
	case FormatZip:
		return h.appendZip(internal, src, modTime)
	default:
		return errs.New(errs.ReadOnlyArchive, h.container)
	}
}

// Close releases any temporary files backing the handle.
func (h *Handle) Close() error {
	if h.backing != "" && h.backing != h.container {
		os.Remove(h.backing)
	}
	if h.transient {
		os.Remove(h.container)
	}
	return nil
}

func entryOf(n *node) Entry {
	return Entry{Name: n.name, Dir: n.dir, Size: n.size, ModTime: n.modTime, Link: n.link}
}
