// Package errs provides the error taxonomy shared by the virtual
// filesystem, archive adapters and the operation engine. Every failure
// crossing a package boundary carries a Kind so callers can react to the
// category without string matching.
package errs

import (
	"errors"
	"fmt"
	"io/fs"
)

// Re-exported for convenience so callers only import one errors package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Kind classifies an error.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	NotADirectory
	PermissionDenied
	CorruptArchive
	UnsupportedFormat
	ReadOnlyArchive
	UnsupportedInArchive
	CircularCopy
	IO
	EntryVanished
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case NotADirectory:
		return "not a directory"
	case PermissionDenied:
		return "permission denied"
	case CorruptArchive:
		return "corrupt archive"
	case UnsupportedFormat:
		return "unsupported archive format"
	case ReadOnlyArchive:
		return "archive is read-only"
	case UnsupportedInArchive:
		return "operation not supported inside archive"
	case CircularCopy:
		return "destination is inside source"
	case IO:
		return "i/o error"
	case EntryVanished:
		return "entry vanished"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type used across the core packages.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind for a path.
func New(kind Kind, path string) *Error {
	return &Error{Kind: kind, Path: path}
}

// Wrap attaches a kind and path to an underlying cause.
func Wrap(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// Newf creates an error of the given kind with a formatted cause.
func Newf(kind Kind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from an error chain, Unknown if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// FromOS maps an operating system error onto the taxonomy. Unrecognized
// errors become IO.
func FromOS(path string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(NotFound, path, err)
	case errors.Is(err, fs.ErrPermission):
		return Wrap(PermissionDenied, path, err)
	default:
		return Wrap(IO, path, err)
	}
}
