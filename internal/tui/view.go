package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"noxcmd/internal/pane"
	"noxcmd/internal/vfs"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.mode {
	case viewerMode:
		return m.viewViewer()
	case progressMode:
		return m.viewProgress()
	case conflictMode:
		return m.viewConflict()
	case promptMode:
		return m.viewPrompt()
	case confirmMode:
		return m.viewConfirm()
	case fuzzyMode:
		return m.viewFuzzy()
	case helpMode:
		return m.viewHelp()
	default:
		return m.viewBrowse()
	}
}

func (m Model) viewBrowse() string {
	title := m.th.title.Render(appName + " " + version)
	left := m.renderPane(0)
	right := m.renderPane(1)
	content := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, title, content, m.statusLine(), m.th.fBar.Width(m.width).Render(fBarContent))
}

func (m Model) statusLine() string {
	if m.statusMsg == "" {
		return ""
	}
	if m.statusErr {
		return m.th.errMsg.Render(m.statusMsg)
	}
	return m.th.okMsg.Render(m.statusMsg)
}

func (m Model) paneWidth() int {
	w := m.width/2 - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) listHeight() int {
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) renderPane(i int) string {
	p := m.panes[i]
	width := m.paneWidth()
	height := m.listHeight()

	header := m.th.paneHeader.Render(truncate(p.Location().String(), width-2))
	rows := []string{header}

	entries := p.Entries()
	offset := scrollOffset(p.Cursor(), len(entries), height)
	for row := offset; row < len(entries) && row < offset+height; row++ {
		rows = append(rows, m.renderRow(p, entries[row], row == p.Cursor(), width-2))
	}
	if err := p.Err(); err != nil {
		rows = append(rows, m.th.errMsg.Render(truncate(err.Error(), width-2)))
	}
	if info := cursorInfo(p); info != "" {
		rows = append(rows, m.th.dim.Render(truncate(info, width-2)))
	}
	if n := p.SelectionCount(); n > 0 {
		rows = append(rows, m.th.dim.Render(fmt.Sprintf("%d selected", n)))
	}

	body := strings.Join(rows, "\n")
	if i == m.active {
		return m.th.activePane.Width(width).Height(height + 2).Render(body)
	}
	return m.th.idlePane.Width(width).Height(height + 2).Render(body)
}

func (m Model) renderRow(p *pane.State, e vfs.Entry, underCursor bool, width int) string {
	marker := " "
	if p.IsSelected(e) {
		marker = "*"
	}
	size := humanSize(e.Size)
	var tag string
	switch e.Kind {
	case vfs.KindDirectory:
		tag, size = "/", "<dir>"
	case vfs.KindArchive:
		tag = "#"
	case vfs.KindSymlink:
		tag, size = "@", "<link>"
	}
	nameWidth := width - len(size) - 4
	if nameWidth < 8 {
		nameWidth = 8
	}
	name := truncate(e.Name+tag, nameWidth)
	line := fmt.Sprintf("%s %-*s %s", marker, nameWidth, name, size)

	switch {
	case underCursor:
		return m.th.cursorRow.Render(line)
	case p.IsSelected(e):
		return m.th.selectedRow.Render(line)
	case e.Kind == vfs.KindDirectory:
		return m.th.dirEntry.Render(line)
	case e.Kind == vfs.KindArchive:
		return m.th.archEntry.Render(line)
	case e.Kind == vfs.KindSymlink:
		return m.th.linkEntry.Render(line)
	default:
		return line
	}
}

func (m Model) viewViewer() string {
	title := m.th.title.Render("viewing " + m.viewerTitle)
	help := m.th.dim.Render("esc/q: close • arrows/pgup/pgdn: scroll")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewer.View(), help)
}

func (m Model) viewProgress() string {
	title := m.th.title.Render(appName + " " + version)
	info := m.th.dim.Render(fmt.Sprintf("%d/%d %s", m.progressInfo.Done, m.progressInfo.Total, truncate(m.progressInfo.Current, m.width-12)))
	help := m.th.dim.Render("esc: cancel")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.progressBar.View(), info, help)
}

func (m Model) viewConflict() string {
	title := m.th.title.Render(appName + " " + version)
	target := ""
	if m.decision != nil {
		target = m.decision.path.String()
	}
	box := m.th.prompt.Render(fmt.Sprintf("%s already exists\n[o]verwrite  [s]kip  [a]bort", target))
	return lipgloss.JoinVertical(lipgloss.Left, title, box)
}

func (m Model) viewPrompt() string {
	title := m.th.title.Render(appName + " " + version)
	var label string
	switch m.promptKind {
	case promptMkdir:
		label = "create directory"
	case promptRename:
		label = "rename"
	case promptGlob:
		label = "select by pattern"
	}
	box := m.th.prompt.Render(label + "\n" + m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, title, box, m.statusLine())
}

func (m Model) viewConfirm() string {
	title := m.th.title.Render(appName + " " + version)
	var question string
	switch m.confirmKind {
	case confirmQuit:
		question = "really quit?"
	case confirmDelete:
		n := 0
		if m.pendingReq != nil {
			n = len(m.pendingReq.Sources)
		}
		question = fmt.Sprintf("delete %d entries?", n)
	}
	box := m.th.prompt.Render(question + "  [y]es / [n]o")
	return lipgloss.JoinVertical(lipgloss.Left, title, box)
}

func (m Model) viewFuzzy() string {
	title := m.th.title.Render("jump to")
	rows := make([]string, 0, len(m.fuzzyMatches))
	for i, idx := range m.fuzzyMatches {
		t := m.fuzzyTargets[idx]
		line := truncate(t.display, m.width-6)
		if i == m.fuzzyCursor {
			line = m.th.cursorRow.Render(line)
		} else if t.isDir {
			line = m.th.dirEntry.Render(line)
		}
		rows = append(rows, line)
	}
	list := strings.Join(rows, "\n")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.th.prompt.Render(m.fuzzyInput.View()), list)
}

func (m Model) viewHelp() string {
	title := m.th.title.Render(appName + " " + version)
	keys := m.keys
	lines := []string{
		helpString(keys.enter), helpString(keys.back), helpString(keys.tab),
		helpString(keys.selectIt), helpString(keys.selectAll), helpString(keys.invertSel), helpString(keys.globSelect),
		helpString(keys.view), helpString(keys.copy), helpString(keys.move),
		helpString(keys.mkdir), helpString(keys.rename), helpString(keys.delete),
		helpString(keys.refresh), helpString(keys.hidden), helpString(keys.sort),
		helpString(keys.fuzzy), helpString(keys.quit),
	}
	body := m.th.prompt.Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, title, body, m.th.dim.Render("any key to close"))
}

// cursorInfo details the entry under the cursor: permissions (real
// entries only), size and modification time.
func cursorInfo(p *pane.State) string {
	e, ok := p.CurrentEntry()
	if !ok || e.Name == pane.ParentName {
		return ""
	}
	parts := make([]string, 0, 3)
	if e.Mode != 0 {
		parts = append(parts, e.Mode.String())
	}
	parts = append(parts, humanSize(e.Size))
	if !e.ModTime.IsZero() {
		parts = append(parts, e.ModTime.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, "  ")
}

// scrollOffset keeps the cursor inside the visible window.
func scrollOffset(cursor, total, height int) int {
	if total <= height {
		return 0
	}
	offset := cursor - height/2
	if offset < 0 {
		offset = 0
	}
	if offset > total-height {
		offset = total - height
	}
	return offset
}

func truncate(s string, max int) string {
	if max < 1 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
