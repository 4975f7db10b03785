// Package pane tracks one browsing pane: its location, current listing,
// cursor, and multi-selection. Navigation transitions read through the
// VFS; the pane never mutates the backing store itself.
package pane

import (
	"github.com/gobwas/glob"

	"noxcmd/internal/errs"
	"noxcmd/internal/log"
	"noxcmd/internal/vfs"
)

// ParentName is the synthetic entry leading to the parent directory. It
// heads every non-root listing and is never selectable.
const ParentName = ".."

// State is one pane's browsing state. Entries always reflect the most
// recent listing of Location; the cursor is clamped into it and the
// selection is pruned against it on every refresh.
type State struct {
	fs       *vfs.VFS
	location vfs.Path
	entries  []vfs.Entry
	cursor   int
	selected map[string]vfs.Path
	lastErr  error
}

// New creates a pane at the given start location and lists it.
func New(fs *vfs.VFS, start vfs.Path) *State {
	s := &State{fs: fs, location: start, selected: map[string]vfs.Path{}}
	if err := fs.RetainPath(start); err != nil {
		log.Warnf("pane: retain %s: %v", start, err)
	}
	s.Refresh()
	return s
}

func (s *State) Location() vfs.Path   { return s.location }
func (s *State) Entries() []vfs.Entry { return s.entries }
func (s *State) Cursor() int          { return s.cursor }
func (s *State) Err() error           { return s.lastErr }

// Refresh re-lists the location. Listing errors surface as an empty
// listing plus the stored error rather than a crash; the synthetic
// parent entry stays so the user can always navigate out. The selection
// is pruned to entries still present, matched by path equality.
func (s *State) Refresh() {
	listing, err := s.fs.List(s.location)
	s.lastErr = err
	if err != nil {
		log.Warnf("pane: list %s: %v", s.location, err)
		listing = nil
	}

	entries := make([]vfs.Entry, 0, len(listing)+1)
	if !s.location.IsRoot() {
		entries = append(entries, vfs.Entry{
			Name: ParentName,
			Kind: vfs.KindDirectory,
			Path: s.location.Parent(),
		})
	}
	entries = append(entries, listing...)
	s.entries = entries

	present := map[string]vfs.Path{}
	for _, e := range listing {
		key := e.Path.String()
		if _, ok := s.selected[key]; ok {
			present[key] = e.Path
		}
	}
	s.selected = present
	s.clampCursor()
}

func (s *State) clampCursor() {
	if len(s.entries) == 0 {
		s.cursor = 0
		return
	}
	if s.cursor >= len(s.entries) || s.cursor < 0 {
		s.cursor = 0
	}
}

// CurrentEntry returns the entry under the cursor, false on an empty
// listing.
func (s *State) CurrentEntry() (vfs.Entry, bool) {
	if len(s.entries) == 0 || s.cursor >= len(s.entries) {
		return vfs.Entry{}, false
	}
	return s.entries[s.cursor], true
}

// Enter descends into the entry under the cursor when it is a directory
// or an archive. Plain files do not navigate; the caller decides what to
// do with them (view, edit). Reports whether navigation happened.
func (s *State) Enter() bool {
	e, ok := s.CurrentEntry()
	if !ok {
		return false
	}
	switch {
	case e.Name == ParentName:
		s.GoParent()
		return true
	case e.Kind == vfs.KindDirectory:
		s.moveTo(e.Path)
		return true
	case e.Kind == vfs.KindArchive:
		s.moveTo(e.Path.Mounted(e.Format))
		return true
	default:
		return false
	}
}

// GoParent ascends one level (crossing back out of an archive when the
// boundary is passed) and positions the cursor on the entry just left,
// so repeated ascension is visually stable.
func (s *State) GoParent() {
	if s.location.IsRoot() {
		return
	}
	leftName := s.location.Base()
	s.moveTo(s.location.Parent())
	for i, e := range s.entries {
		if e.Name == leftName {
			s.cursor = i
			break
		}
	}
}

// JumpTo relocates the pane to dir and places the cursor on name when
// the listing contains it. Used by search-style navigation.
func (s *State) JumpTo(dir vfs.Path, name string) {
	s.moveTo(dir)
	if name == "" {
		return
	}
	for i, e := range s.entries {
		if e.Name == name {
			s.cursor = i
			break
		}
	}
}

func (s *State) moveTo(target vfs.Path) {
	if err := s.fs.RetainPath(target); err != nil {
		s.lastErr = err
		log.Warnf("pane: enter %s: %v", target, err)
		return
	}
	old := s.location
	s.location = target
	s.cursor = 0
	s.selected = map[string]vfs.Path{}
	s.Refresh()
	s.fs.ReleasePath(old)
}

// Cursor movement clamps to the listing and is a no-op when empty.

func (s *State) CursorUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *State) CursorDown() {
	if s.cursor < len(s.entries)-1 {
		s.cursor++
	}
}

func (s *State) PageUp(viewport int) {
	s.cursor -= pageSize(viewport)
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *State) PageDown(viewport int) {
	s.cursor += pageSize(viewport)
	if max := len(s.entries) - 1; s.cursor > max {
		s.cursor = max
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *State) Home() { s.cursor = 0 }

func (s *State) End() {
	if len(s.entries) > 0 {
		s.cursor = len(s.entries) - 1
	}
}

func pageSize(viewport int) int {
	size := viewport - 2
	if size < 1 {
		size = 1
	}
	return size
}

// ToggleSelect flips selection of the entry under the cursor. The
// synthetic parent entry is never selectable.
func (s *State) ToggleSelect() {
	e, ok := s.CurrentEntry()
	if !ok || e.Name == ParentName {
		return
	}
	key := e.Path.String()
	if _, on := s.selected[key]; on {
		delete(s.selected, key)
	} else {
		s.selected[key] = e.Path
	}
}

// SelectAll selects every non-parent entry of the current listing.
func (s *State) SelectAll() {
	for _, e := range s.entries {
		if e.Name != ParentName {
			s.selected[e.Path.String()] = e.Path
		}
	}
}

// DeselectAll clears the selection.
func (s *State) DeselectAll() {
	s.selected = map[string]vfs.Path{}
}

// InvertSelection flips every non-parent entry.
func (s *State) InvertSelection() {
	for _, e := range s.entries {
		if e.Name == ParentName {
			continue
		}
		key := e.Path.String()
		if _, on := s.selected[key]; on {
			delete(s.selected, key)
		} else {
			s.selected[key] = e.Path
		}
	}
}

// SelectGlob selects entries whose name matches the glob pattern and
// returns how many matched.
func (s *State) SelectGlob(pattern string) (int, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return 0, errs.Wrap(errs.Unknown, pattern, err)
	}
	count := 0
	for _, e := range s.entries {
		if e.Name == ParentName || !g.Match(e.Name) {
			continue
		}
		s.selected[e.Path.String()] = e.Path
		count++
	}
	return count, nil
}

// IsSelected reports whether the entry is in the selection set.
func (s *State) IsSelected(e vfs.Entry) bool {
	_, ok := s.selected[e.Path.String()]
	return ok
}

// SelectionCount returns the number of selected entries.
func (s *State) SelectionCount() int { return len(s.selected) }

// SelectedPaths returns the selection in listing order. When nothing is
// selected it falls back to the entry under the cursor, matching the
// usual commander behavior for single-target operations.
func (s *State) SelectedPaths() []vfs.Path {
	if len(s.selected) == 0 {
		if e, ok := s.CurrentEntry(); ok && e.Name != ParentName {
			return []vfs.Path{e.Path}
		}
		return nil
	}
	out := make([]vfs.Path, 0, len(s.selected))
	for _, e := range s.entries {
		if _, ok := s.selected[e.Path.String()]; ok {
			out = append(out, e.Path)
		}
	}
	return out
}

// Close releases the pane's mount retention. Call on shutdown.
func (s *State) Close() {
	s.fs.ReleasePath(s.location)
}
