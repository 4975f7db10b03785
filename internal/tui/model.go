// Package tui is the bubbletea front end: two panes over the virtual
// filesystem, a status line, modal prompts, and an operation progress
// view. All filesystem work happens in the pane and engine packages;
// the model only routes keys and renders state.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"noxcmd/internal/config"
	"noxcmd/internal/engine"
	"noxcmd/internal/log"
	"noxcmd/internal/pane"
	"noxcmd/internal/vfs"
	"noxcmd/internal/watch"
)

type promptKind int

const (
	promptMkdir promptKind = iota
	promptRename
	promptGlob
)

type confirmKind int

const (
	confirmDelete confirmKind = iota
	confirmQuit
)

// Model is the bubbletea application state.
type Model struct {
	cfg    *config.Config
	fs     *vfs.VFS
	panes  [2]*pane.State
	active int

	keys keyMap
	th   theme
	mode mode

	statusMsg string
	statusErr bool

	input       textinput.Model
	promptKind  promptKind
	confirmKind confirmKind
	pendingReq  *engine.Request

	progressBar  progress.Model
	progressInfo engine.Progress
	opCancel     context.CancelFunc
	opEvents     chan opEvent
	decision     *decisionRequest

	viewer      viewport.Model
	viewerTitle string

	fuzzyInput   textinput.Model
	fuzzyTargets []jumpTarget
	fuzzyMatches []int
	fuzzyCursor  int

	watcher    *watch.Watcher
	watchedDir [2]string

	width    int
	height   int
	quitting bool
}

// New assembles the model. The watcher is optional; when the platform
// refuses fsnotify the panes simply stop auto-refreshing.
func New(cfg *config.Config) Model {
	fs := vfs.New(vfs.Options{ShowHidden: cfg.Display.ShowHidden, Sort: cfg.SortMode()})

	left := pane.New(fs, vfs.FromReal(config.StartDir(cfg.Panels.Left)))
	right := pane.New(fs, vfs.FromReal(config.StartDir(cfg.Panels.Right)))

	in := textinput.New()
	in.CharLimit = 255
	fi := textinput.New()
	fi.Placeholder = "jump to..."

	w, err := watch.New()
	if err != nil {
		log.Warnf("tui: filesystem watching unavailable: %v", err)
		w = nil
	}

	m := Model{
		cfg:         cfg,
		fs:          fs,
		panes:       [2]*pane.State{left, right},
		keys:        newKeyMap(),
		th:          newTheme(cfg),
		mode:        browseMode,
		input:       in,
		progressBar: progress.New(progress.WithDefaultGradient()),
		viewer:      viewport.New(0, 0),
		fuzzyInput:  fi,
		watcher:     w,
	}
	for i := range m.panes {
		m.syncWatch(i)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitWatch())
}

func (m *Model) pane() *pane.State      { return m.panes[m.active] }
func (m *Model) otherPane() *pane.State { return m.panes[1-m.active] }

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusErr = false
}

func (m *Model) setError(msg string) {
	m.statusMsg = msg
	m.statusErr = true
}

func (m *Model) refreshAll() {
	for i, p := range m.panes {
		p.Refresh()
		m.syncWatch(i)
	}
}

// syncWatch points the watcher at the pane's directory. Archive-mounted
// locations watch the container's directory so an external change to
// the archive file still triggers a refresh.
func (m *Model) syncWatch(i int) {
	if m.watcher == nil {
		return
	}
	dir := watchDir(m.panes[i].Location())
	if dir == m.watchedDir[i] {
		return
	}
	if m.watchedDir[i] != "" {
		m.watcher.Remove(m.watchedDir[i])
	}
	m.watchedDir[i] = dir
	if dir != "" {
		m.watcher.Add(dir)
	}
}

func watchDir(p vfs.Path) string {
	if p.IsMounted() {
		return p.Container().Parent().Real()
	}
	return p.Real()
}

// Close releases panes and the watcher; call after the program exits.
func (m *Model) Close() {
	for _, p := range m.panes {
		p.Close()
	}
	if m.watcher != nil {
		m.watcher.Close()
	}
}
