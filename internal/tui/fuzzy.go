package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"noxcmd/internal/vfs"
)

// jumpTarget is one candidate of the fuzzy jump index.
type jumpTarget struct {
	display string // path relative to the pane location
	dir     vfs.Path
	name    string
	isDir   bool
}

const fuzzyWalkDepth = 6

// openFuzzy snapshots the subtree under the active pane into the jump
// index and enters fuzzy mode. The walk is bounded in depth and size so
// a huge tree cannot stall the UI; archives are not descended into.
func (m Model) openFuzzy() (tea.Model, tea.Cmd) {
	m.fuzzyTargets = m.fuzzyTargets[:0]
	m.collectTargets(m.pane().Location(), "", 0)
	m.fuzzyInput.Reset()
	m.fuzzyInput.Focus()
	m.fuzzyCursor = 0
	m.rankTargets("")
	m.mode = fuzzyMode
	return m, nil
}

func (m *Model) collectTargets(dir vfs.Path, rel string, depth int) {
	if depth > fuzzyWalkDepth || len(m.fuzzyTargets) >= fuzzyWalkLimit {
		return
	}
	entries, err := m.fs.List(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if len(m.fuzzyTargets) >= fuzzyWalkLimit {
			return
		}
		display := e.Name
		if rel != "" {
			display = rel + "/" + e.Name
		}
		m.fuzzyTargets = append(m.fuzzyTargets, jumpTarget{
			display: display,
			dir:     dir,
			name:    e.Name,
			isDir:   e.Kind == vfs.KindDirectory,
		})
		if e.Kind == vfs.KindDirectory {
			m.collectTargets(e.Path, display, depth+1)
		}
	}
}

// rankTargets orders the index by fuzzy relevance; an empty query keeps
// walk order.
func (m *Model) rankTargets(query string) {
	m.fuzzyMatches = m.fuzzyMatches[:0]
	if strings.TrimSpace(query) == "" {
		for i := range m.fuzzyTargets {
			if len(m.fuzzyMatches) >= fuzzyShownLimit {
				break
			}
			m.fuzzyMatches = append(m.fuzzyMatches, i)
		}
		return
	}
	matches := fuzzy.FindFrom(query, targetSource(m.fuzzyTargets))
	for _, match := range matches {
		if len(m.fuzzyMatches) >= fuzzyShownLimit {
			break
		}
		m.fuzzyMatches = append(m.fuzzyMatches, match.Index)
	}
	if m.fuzzyCursor >= len(m.fuzzyMatches) {
		m.fuzzyCursor = 0
	}
}

// targetSource adapts the index to the fuzzy matcher.
type targetSource []jumpTarget

func (s targetSource) String(i int) string { return s[i].display }
func (s targetSource) Len() int            { return len(s) }

func (m Model) updateFuzzy(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.mode = browseMode
		return m, nil
	case msg.String() == "up":
		if m.fuzzyCursor > 0 {
			m.fuzzyCursor--
		}
		return m, nil
	case msg.String() == "down":
		if m.fuzzyCursor < len(m.fuzzyMatches)-1 {
			m.fuzzyCursor++
		}
		return m, nil
	case msg.String() == "enter":
		m.mode = browseMode
		if m.fuzzyCursor >= len(m.fuzzyMatches) {
			return m, nil
		}
		t := m.fuzzyTargets[m.fuzzyMatches[m.fuzzyCursor]]
		if t.isDir {
			m.pane().JumpTo(t.dir.Join(t.name), "")
		} else {
			m.pane().JumpTo(t.dir, t.name)
		}
		m.syncWatch(m.active)
		return m, nil
	}
	var cmd tea.Cmd
	m.fuzzyInput, cmd = m.fuzzyInput.Update(msg)
	m.rankTargets(m.fuzzyInput.Value())
	return m, cmd
}
