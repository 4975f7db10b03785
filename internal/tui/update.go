package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"noxcmd/internal/engine"
	"noxcmd/internal/pane"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 8
		m.fuzzyInput.Width = msg.Width - 8
		m.progressBar.Width = msg.Width - 8
		m.viewer.Width = msg.Width - 4
		m.viewer.Height = msg.Height - 6
		return m, nil

	case watchMsg:
		for i, p := range m.panes {
			if m.watchedDir[i] == string(msg) {
				p.Refresh()
			}
		}
		return m, m.waitWatch()

	case opEventMsg:
		return m.updateOperation(opEvent(msg))

	case progress.FrameMsg:
		bar, cmd := m.progressBar.Update(msg)
		m.progressBar = bar.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case progressMode:
			if key.Matches(msg, m.keys.cancel) && m.opCancel != nil {
				m.opCancel()
			}
			return m, nil
		case conflictMode:
			return m.updateConflict(msg)
		case promptMode:
			return m.updatePrompt(msg)
		case confirmMode:
			return m.updateConfirm(msg)
		case viewerMode:
			return m.updateViewer(msg)
		case fuzzyMode:
			return m.updateFuzzy(msg)
		case helpMode:
			m.mode = browseMode
			return m, nil
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateOperation(ev opEvent) (tea.Model, tea.Cmd) {
	switch {
	case ev.progress != nil:
		m.progressInfo = *ev.progress
		pct := 1.0
		if ev.progress.Total > 0 {
			pct = float64(ev.progress.Done) / float64(ev.progress.Total)
		}
		return m, tea.Batch(m.progressBar.SetPercent(pct), m.waitOpEvent())
	case ev.decision != nil:
		m.decision = ev.decision
		m.mode = conflictMode
		return m, nil
	case ev.report != nil:
		m.finishOperation(ev.report)
		return m, nil
	}
	return m, m.waitOpEvent()
}

func (m Model) updateConflict(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.decision == nil {
		m.mode = progressMode
		return m, m.waitOpEvent()
	}
	var d engine.Decision
	switch msg.String() {
	case "o", "enter":
		d = engine.DecideOverwrite
	case "s":
		d = engine.DecideSkip
	case "a", "esc":
		d = engine.DecideAbort
	default:
		return m, nil
	}
	m.decision.reply <- d
	m.decision = nil
	m.mode = progressMode
	return m, m.waitOpEvent()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.mode = browseMode
		return m, nil
	case msg.String() == "enter":
		value := m.input.Value()
		m.mode = browseMode
		if value == "" {
			return m, nil
		}
		return m.applyPrompt(value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) applyPrompt(value string) (tea.Model, tea.Cmd) {
	switch m.promptKind {
	case promptMkdir:
		return m, m.startOperation(engine.Request{
			Op:   engine.MakeDirectory,
			Dest: m.pane().Location().Join(value),
		})
	case promptRename:
		cur, ok := m.pane().CurrentEntry()
		if !ok {
			return m, nil
		}
		if err := m.fs.Rename(cur.Path, value); err != nil {
			m.setError(fmt.Sprintf("rename: %v", err))
		} else {
			m.setStatus(fmt.Sprintf("renamed to %s", value))
			m.refreshAll()
		}
		return m, nil
	case promptGlob:
		n, err := m.pane().SelectGlob(value)
		if err != nil {
			m.setError(fmt.Sprintf("bad pattern: %v", err))
		} else {
			m.setStatus(fmt.Sprintf("%d entries matched %s", n, value))
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.mode = browseMode
		switch m.confirmKind {
		case confirmQuit:
			m.quitting = true
			return m, tea.Quit
		case confirmDelete:
			if m.pendingReq != nil {
				req := *m.pendingReq
				m.pendingReq = nil
				return m, m.startOperation(req)
			}
		}
	case "n", "esc":
		m.mode = browseMode
		m.pendingReq = nil
		m.setStatus("cancelled")
	}
	return m, nil
}

func (m Model) updateViewer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) || msg.String() == "q" {
		m.mode = browseMode
		return m, nil
	}
	var cmd tea.Cmd
	m.viewer, cmd = m.viewer.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.pane()
	keys := m.keys
	switch {
	case msg.String() == "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.quit):
		if m.cfg.Confirm.Quit {
			m.mode = confirmMode
			m.confirmKind = confirmQuit
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.tab):
		m.active = 1 - m.active

	case key.Matches(msg, keys.up):
		p.CursorUp()
	case key.Matches(msg, keys.down):
		p.CursorDown()
	case key.Matches(msg, keys.pageUp):
		p.PageUp(m.listHeight())
	case key.Matches(msg, keys.pageDown):
		p.PageDown(m.listHeight())
	case key.Matches(msg, keys.home):
		p.Home()
	case key.Matches(msg, keys.end):
		p.End()

	case key.Matches(msg, keys.enter):
		if p.Enter() {
			m.syncWatch(m.active)
			if err := p.Err(); err != nil {
				m.setError(err.Error())
			}
			return m, nil
		}
		return m.openViewer()
	case key.Matches(msg, keys.back):
		p.GoParent()
		m.syncWatch(m.active)

	case key.Matches(msg, keys.selectIt):
		p.ToggleSelect()
		p.CursorDown()
	case key.Matches(msg, keys.selectAll):
		p.SelectAll()
	case key.Matches(msg, keys.invertSel):
		p.InvertSelection()
	case key.Matches(msg, keys.globSelect):
		return m.openPrompt(promptGlob, "select pattern, e.g. *.txt", "")

	case key.Matches(msg, keys.view):
		return m.openViewer()
	case key.Matches(msg, keys.copy):
		return m.requestTransfer(engine.Copy)
	case key.Matches(msg, keys.move):
		return m.requestTransfer(engine.Move)
	case key.Matches(msg, keys.mkdir):
		return m.openPrompt(promptMkdir, "new directory name", "")
	case key.Matches(msg, keys.rename):
		cur, ok := p.CurrentEntry()
		if !ok || cur.Name == pane.ParentName {
			return m, nil
		}
		return m.openPrompt(promptRename, "new name", cur.Name)
	case key.Matches(msg, keys.delete):
		return m.requestDelete()

	case key.Matches(msg, keys.refresh):
		m.refreshAll()
		m.setStatus("refreshed")
	case key.Matches(msg, keys.hidden):
		show := !m.cfg.Display.ShowHidden
		m.cfg.Display.ShowHidden = show
		m.fs.SetShowHidden(show)
		m.refreshAll()
		if show {
			m.setStatus("hidden entries shown")
		} else {
			m.setStatus("hidden entries concealed")
		}
	case key.Matches(msg, keys.sort):
		m.cycleSort()
	case key.Matches(msg, keys.fuzzy):
		return m.openFuzzy()
	case key.Matches(msg, keys.help):
		m.mode = helpMode
	}
	return m, nil
}

func (m *Model) cycleSort() {
	next := map[string]string{"name": "size", "size": "time", "time": "name"}
	m.cfg.Display.Sort = next[m.cfg.Display.Sort]
	m.fs.SetSortMode(m.cfg.SortMode())
	m.refreshAll()
	m.setStatus("sorted by " + m.cfg.Display.Sort)
}

func (m Model) openPrompt(kind promptKind, placeholder, prefill string) (tea.Model, tea.Cmd) {
	m.mode = promptMode
	m.promptKind = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(prefill)
	m.input.CursorEnd()
	m.input.Focus()
	return m, nil
}

func (m Model) requestTransfer(op engine.Op) (tea.Model, tea.Cmd) {
	sources := m.pane().SelectedPaths()
	if len(sources) == 0 {
		m.setError("nothing selected")
		return m, nil
	}
	dest := m.otherPane().Location()
	for _, src := range sources {
		if dest.Join(src.Base()).HasPrefix(src) {
			m.setError("source and destination overlap")
			return m, nil
		}
	}
	return m, m.startOperation(engine.Request{
		Op:      op,
		Sources: sources,
		Dest:    dest,
		Policy:  m.collisionPolicy(),
	})
}

func (m Model) requestDelete() (tea.Model, tea.Cmd) {
	sources := m.pane().SelectedPaths()
	if len(sources) == 0 {
		m.setError("nothing selected")
		return m, nil
	}
	for _, src := range sources {
		if src.IsMounted() {
			m.setError("archive entries cannot be deleted")
			return m, nil
		}
	}
	req := engine.Request{Op: engine.Delete, Sources: sources}
	if m.cfg.Confirm.Delete {
		m.mode = confirmMode
		m.confirmKind = confirmDelete
		m.pendingReq = &req
		return m, nil
	}
	return m, m.startOperation(req)
}
