package vfs

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"noxcmd/internal/archive"
	"noxcmd/internal/errs"
	"noxcmd/internal/log"
)

// mountRef is one reference-counted archive handle. Handles are keyed by
// the container chain and stamped with the outer container's modification
// time; a changed stamp invalidates the cached handle once it is idle.
type mountRef struct {
	h     *archive.Handle
	stamp int64
	refs  int
}

type mountTable struct {
	mu   sync.Mutex
	refs map[string]*mountRef
}

func newMountTable() *mountTable {
	return &mountTable{refs: map[string]*mountRef{}}
}

// chain describes every mount level a path crosses, outermost first.
type chainLevel struct {
	id       string
	format   archive.Format
	real     string // outer level only: container path on the real fs
	internal string // inner levels: container path inside the parent
}

func levelsOf(p Path) []chainLevel {
	levels := make([]chainLevel, 0, len(p.mounts))
	for i, m := range p.mounts {
		var lv chainLevel
		lv.format = m.Format
		if i == 0 {
			lv.real = "/" + strings.Join(p.segs[:m.Seg+1], "/")
			lv.id = lv.real
		} else {
			prev := p.mounts[i-1]
			lv.internal = strings.Join(p.segs[prev.Seg+1:m.Seg+1], "/")
			lv.id = levels[i-1].id + "!" + lv.internal
		}
		levels = append(levels, lv)
	}
	return levels
}

// internalOf returns the path inside the innermost mounted archive,
// "" when p addresses the archive root itself.
func internalOf(p Path) string {
	last := p.mounts[len(p.mounts)-1]
	return strings.Join(p.segs[last.Seg+1:], "/")
}

// acquire opens (or reuses) every handle along the path's mount chain,
// incrementing each level's reference count, and returns the innermost
// handle. Callers must pair it with release on the same path.
func (t *mountTable) acquire(p Path) (*archive.Handle, string, error) {
	levels := levelsOf(p)
	if len(levels) == 0 {
		return nil, "", errs.New(errs.Unknown, p.String())
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fi, err := os.Stat(levels[0].real)
	if err != nil {
		return nil, "", errs.FromOS(levels[0].real, err)
	}
	stamp := fi.ModTime().UnixNano()

	acquired := make([]string, 0, len(levels))
	rollback := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			t.releaseLocked(acquired[i])
		}
	}

	var prev *archive.Handle
	for _, lv := range levels {
		ref, ok := t.refs[lv.id]
		if ok && ref.stamp != stamp {
			if ref.refs == 0 {
				ref.h.Close()
				delete(t.refs, lv.id)
				ok = false
			} else {
				log.Warnf("vfs: %s changed on disk while mounted; keeping stale index", lv.id)
			}
		}
		if !ok {
			h, err := openLevel(prev, lv)
			if err != nil {
				rollback()
				return nil, "", err
			}
			ref = &mountRef{h: h, stamp: stamp}
			t.refs[lv.id] = ref
		}
		ref.refs++
		acquired = append(acquired, lv.id)
		prev = ref.h
	}
	return prev, internalOf(p), nil
}

func openLevel(parent *archive.Handle, lv chainLevel) (*archive.Handle, error) {
	if parent == nil {
		return archive.Open(lv.real, lv.format)
	}
	tmp, err := parent.ExtractTemp(lv.internal)
	if err != nil {
		return nil, err
	}
	return archive.OpenTransient(tmp, lv.format)
}

// release decrements every level of the path's mount chain, closing
// handles whose count drops to zero (innermost first).
func (t *mountTable) release(p Path) {
	levels := levelsOf(p)
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(levels) - 1; i >= 0; i-- {
		t.releaseLocked(levels[i].id)
	}
}

func (t *mountTable) releaseLocked(id string) {
	ref, ok := t.refs[id]
	if !ok {
		return
	}
	ref.refs--
	if ref.refs <= 0 {
		ref.h.Close()
		delete(t.refs, id)
		log.Debugf("vfs: released mount %s", id)
	}
}

// open reports how many handles are currently mounted; used by tests.
func (t *mountTable) open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.refs)
}

func (t *mountTable) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	parts := make([]string, 0, len(t.refs))
	for id, ref := range t.refs {
		parts = append(parts, fmt.Sprintf("%s(refs=%d)", id, ref.refs))
	}
	return strings.Join(parts, ", ")
}
