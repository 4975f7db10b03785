package archive

import "strings"

// Format identifies a supported archive container format.
type Format int

const (
	FormatZip Format = iota
	FormatTar
	FormatTarGz
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatTarGz:
		return "tar.gz"
	default:
		return "unknown"
	}
}

// Detect reports the archive format implied by a file name, if any.
func Detect(name string) (Format, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, true
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, true
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, true
	default:
		return 0, false
	}
}

// IsArchive reports whether the name looks like a supported archive.
func IsArchive(name string) bool {
	_, ok := Detect(name)
	return ok
}
