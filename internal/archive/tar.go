package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"

	"noxcmd/internal/errs"
)

func (h *Handle) indexTar() error {
	f, err := os.Open(h.backing)
	if err != nil {
		return errs.FromOS(h.container, err)
	}
	defer f.Close()
	root := newRoot()
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errs.Wrap(errs.CorruptArchive, h.container, err)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			root.insert(hdr.Name, &node{
				dir:      true,
				modTime:  hdr.ModTime,
				children: map[string]*node{},
			})
		case tar.TypeSymlink, tar.TypeLink:
			root.insert(hdr.Name, &node{
				modTime: hdr.ModTime,
				link:    hdr.Linkname,
				key:     hdr.Name,
			})
		case tar.TypeReg:
			root.insert(hdr.Name, &node{
				size:    hdr.Size,
				modTime: hdr.ModTime,
				key:     hdr.Name,
			})
		}
	}
	h.root = root
	return nil
}

// extractTar rescans the backing file sequentially; TAR has no central
// directory, but for TAR.GZ the backing is already a decompressed
// seekable copy so the scan is cheap.
func (h *Handle) extractTar(key string, sink io.Writer) error {
	f, err := os.Open(h.backing)
	if err != nil {
		return errs.FromOS(h.container, err)
	}
	defer f.Close()
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return errs.New(errs.NotFound, h.container+"/"+key)
		}
		if err != nil {
			return errs.Wrap(errs.CorruptArchive, h.container, err)
		}
		if hdr.Name != key {
			continue
		}
		if _, err := io.Copy(sink, tr); err != nil {
			return errs.Wrap(errs.IO, h.container+"/"+key, err)
		}
		return nil
	}
}

// gunzipToTemp decompresses a .tar.gz into a temporary seekable file so
// the plain-tar index and extraction paths can be reused.
func gunzipToTemp(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.FromOS(path, err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", errs.Wrap(errs.CorruptArchive, path, err)
	}
	defer gz.Close()
	tmp, err := os.CreateTemp("", "noxcmd-tgz-*")
	if err != nil {
		return "", errs.Wrap(errs.IO, path, err)
	}
	if _, err := io.Copy(tmp, gz); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errs.Wrap(errs.CorruptArchive, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errs.Wrap(errs.IO, path, err)
	}
	return tmp.Name(), nil
}
