package vfs

import (
	gopath "path"
	"strings"

	"noxcmd/internal/archive"
)

// Mount marks the segment boundary where a Path crosses into an
// archive's internal namespace. Seg is the index of the segment naming
// the archive container itself.
type Mount struct {
	Seg    int
	Format archive.Format
}

// Path addresses an entry across the real filesystem and any chain of
// mounted archives. It is a value object; all methods return copies.
type Path struct {
	segs   []string
	mounts []Mount
}

// FromReal builds a Path from an absolute real-filesystem path.
func FromReal(p string) Path {
	p = gopath.Clean(p)
	if p == "/" || p == "." {
		return Path{}
	}
	p = strings.TrimPrefix(p, "/")
	return Path{segs: strings.Split(p, "/")}
}

// Join returns the path extended by one child segment.
func (p Path) Join(name string) Path {
	segs := make([]string, len(p.segs)+1)
	copy(segs, p.segs)
	segs[len(p.segs)] = name
	return Path{segs: segs, mounts: cloneMounts(p.mounts)}
}

// Mounted returns the path with an archive mount marker on its last
// segment, addressing the root of that archive's namespace.
func (p Path) Mounted(format archive.Format) Path {
	mounts := make([]Mount, len(p.mounts)+1)
	copy(mounts, p.mounts)
	mounts[len(p.mounts)] = Mount{Seg: len(p.segs) - 1, Format: format}
	return Path{segs: cloneSegs(p.segs), mounts: mounts}
}

// Parent pops the last segment, dropping a mount marker when the parent
// crosses back out of an archive. The parent of a mounted archive root
// is the directory holding the container file.
func (p Path) Parent() Path {
	if len(p.segs) == 0 {
		return Path{}
	}
	n := len(p.segs)
	segs := cloneSegs(p.segs[:n-1])
	var mounts []Mount
	for _, m := range p.mounts {
		if m.Seg < n-1 {
			mounts = append(mounts, m)
		}
	}
	// A mount on the last remaining segment means the popped path was the
	// archive root view; stepping out of it leaves the archive entirely.
	return Path{segs: segs, mounts: mounts}
}

// AtArchiveRoot reports whether the path addresses the root of a mounted
// archive (the mount marker sits on the final segment).
func (p Path) AtArchiveRoot() bool {
	return len(p.mounts) > 0 && p.mounts[len(p.mounts)-1].Seg == len(p.segs)-1
}

// Unmounted returns the same segments with the final mount marker
// removed, i.e. the archive container addressed as a plain file.
func (p Path) Unmounted() Path {
	if len(p.mounts) == 0 {
		return p
	}
	return Path{segs: cloneSegs(p.segs), mounts: cloneMounts(p.mounts[:len(p.mounts)-1])}
}

// Container returns the real path of the outermost archive container,
// or the path itself when nothing is mounted.
func (p Path) Container() Path {
	if len(p.mounts) == 0 {
		return p
	}
	return Path{segs: cloneSegs(p.segs[:p.mounts[0].Seg+1])}
}

func (p Path) IsRoot() bool    { return len(p.segs) == 0 }
func (p Path) IsMounted() bool { return len(p.mounts) > 0 }

// Base returns the final segment, "/" for the root.
func (p Path) Base() string {
	if len(p.segs) == 0 {
		return "/"
	}
	return p.segs[len(p.segs)-1]
}

// String renders the path in display form; mount boundaries are not
// visible because archives read like directories.
func (p Path) String() string {
	return "/" + strings.Join(p.segs, "/")
}

// Real returns the real-filesystem path. Only meaningful when the path
// carries no mount markers.
func (p Path) Real() string { return p.String() }

// Equal compares segment sequences and mount markers.
func (p Path) Equal(o Path) bool {
	if len(p.segs) != len(o.segs) || len(p.mounts) != len(o.mounts) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != o.segs[i] {
			return false
		}
	}
	for i := range p.mounts {
		if p.mounts[i] != o.mounts[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix addresses this path or one of its
// ancestors, mount markers included.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segs) > len(p.segs) {
		return false
	}
	for i := range prefix.segs {
		if p.segs[i] != prefix.segs[i] {
			return false
		}
	}
	for _, m := range prefix.mounts {
		if !p.hasMount(m) {
			return false
		}
	}
	return true
}

func (p Path) hasMount(m Mount) bool {
	for _, have := range p.mounts {
		if have == m {
			return true
		}
	}
	return false
}

// Depth returns the number of segments.
func (p Path) Depth() int { return len(p.segs) }

func cloneSegs(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneMounts(m []Mount) []Mount {
	if len(m) == 0 {
		return nil
	}
	out := make([]Mount, len(m))
	copy(out, m)
	return out
}
