package vfs

import (
	"io/fs"
	"sort"
	"strings"
	"time"

	"noxcmd/internal/archive"
)

// Kind is the tagged variant describing what a directory entry is.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
	KindArchive
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "dir"
	case KindFile:
		return "file"
	case KindArchive:
		return "archive"
	case KindSymlink:
		return "symlink"
	default:
		return "?"
	}
}

// Entry is an immutable snapshot of one directory entry produced by a
// listing; it is not live-synced to the backing store.
type Entry struct {
	Name       string
	Kind       Kind
	Size       int64
	ModTime    time.Time
	Mode       fs.FileMode // zero for archive-internal entries
	LinkTarget string
	Format     archive.Format // meaningful when Kind == KindArchive
	Path       Path
}

// IsDir reports whether the entry lists as a directory.
func (e Entry) IsDir() bool { return e.Kind == KindDirectory }

// Enterable reports whether a pane can navigate into the entry.
func (e Entry) Enterable() bool {
	return e.Kind == KindDirectory || e.Kind == KindArchive
}

// SortMode selects the listing comparator. Directories always sort
// before files regardless of mode.
type SortMode int

const (
	SortName SortMode = iota
	SortSize
	SortTime
)

func sortEntries(entries []Entry, mode SortMode) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		switch mode {
		case SortSize:
			if a.Size != b.Size {
				return a.Size > b.Size
			}
		case SortTime:
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.After(b.ModTime)
			}
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.Name < b.Name
	})
}
