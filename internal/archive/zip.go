package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"noxcmd/internal/errs"
)

func (h *Handle) indexZip() error {
	r, err := zip.OpenReader(h.backing)
	if err != nil {
		return errs.Wrap(errs.CorruptArchive, h.container, err)
	}
	defer r.Close()
	root := newRoot()
	for _, f := range r.File {
		name := f.Name
		dir := strings.HasSuffix(name, "/") || f.FileInfo().IsDir()
		n := &node{
			dir:     dir,
			size:    int64(f.UncompressedSize64),
			modTime: f.Modified,
			key:     name,
		}
		if dir {
			n.size = 0
			n.children = map[string]*node{}
		}
		root.insert(name, n)
	}
	h.root = root
	return nil
}

func (h *Handle) extractZip(key string, sink io.Writer) error {
	r, err := zip.OpenReader(h.backing)
	if err != nil {
		return errs.Wrap(errs.CorruptArchive, h.container, err)
	}
	defer r.Close()
	for _, f := range r.File {
		if f.Name != key {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return errs.Wrap(errs.IO, h.container+"/"+key, err)
		}
		defer rc.Close()
		if _, err := io.Copy(sink, rc); err != nil {
			return errs.Wrap(errs.IO, h.container+"/"+key, err)
		}
		return nil
	}
	return errs.New(errs.NotFound, h.container+"/"+key)
}

// appendZip rewrites the whole container with the new entry added,
// replacing any existing entry of the same name, then renames the
// rewritten file over the original. The index is updated in place.
func (h *Handle) appendZip(internal string, src io.Reader, modTime time.Time) error {
	internal = cleanInternal(internal)
	if internal == "" {
		return errs.New(errs.IO, h.container)
	}
	old, err := zip.OpenReader(h.backing)
	if err != nil {
		return errs.Wrap(errs.CorruptArchive, h.container, err)
	}
	defer old.Close()

	tmp, err := os.CreateTemp(filepath.Dir(h.backing), ".noxcmd-zip-*")
	if err != nil {
		return errs.Wrap(errs.IO, h.container, err)
	}
	defer os.Remove(tmp.Name())

	w := zip.NewWriter(tmp)
	for _, f := range old.File {
		if cleanInternal(f.Name) == internal {
			continue
		}
		if err := w.Copy(f); err != nil {
			tmp.Close()
			return errs.Wrap(errs.IO, h.container, err)
		}
	}
	hdr := &zip.FileHeader{Name: internal, Method: zip.Deflate, Modified: modTime}
	dst, err := w.CreateHeader(hdr)
	if err != nil {
		tmp.Close()
		return errs.Wrap(errs.IO, h.container, err)
	}
	written, err := io.Copy(dst, src)
	if err != nil {
		tmp.Close()
		return errs.Wrap(errs.IO, h.container+"/"+internal, err)
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return errs.Wrap(errs.IO, h.container, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.IO, h.container, err)
	}
	if err := os.Rename(tmp.Name(), h.backing); err != nil {
		return errs.Wrap(errs.IO, h.container, err)
	}

	h.root.remove(internal)
	h.root.insert(internal, &node{size: written, modTime: modTime, key: internal})
	return nil
}
