package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"noxcmd/internal/engine"
	"noxcmd/internal/vfs"
)

// opEvent carries one engine-side event into the update loop. Exactly
// one field is set.
type opEvent struct {
	progress *engine.Progress
	decision *decisionRequest
	report   *engine.Report
}

// decisionRequest blocks the engine's current step until the user
// answers the conflict prompt; the reply channel unblocks it.
type decisionRequest struct {
	path  vfs.Path
	reply chan engine.Decision
}

type opEventMsg opEvent

type watchMsg string

// startOperation launches the request on a fresh engine goroutine and
// switches to the progress view. Events flow back through opEvents one
// at a time; waitOpEvent re-arms after each one.
func (m *Model) startOperation(req engine.Request) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.opCancel = cancel
	m.opEvents = make(chan opEvent, 1)
	m.mode = progressMode
	m.progressInfo = engine.Progress{}

	events := m.opEvents
	eng := engine.New(m.fs,
		engine.WithProgress(func(p engine.Progress) {
			events <- opEvent{progress: &p}
		}),
		engine.WithResolver(engine.ResolverFunc(func(p vfs.Path) engine.Decision {
			req := decisionRequest{path: p, reply: make(chan engine.Decision)}
			events <- opEvent{decision: &req}
			return <-req.reply
		})),
	)
	go func() {
		rep := eng.Run(ctx, req)
		events <- opEvent{report: rep}
	}()
	return tea.Batch(m.progressBar.SetPercent(0), m.waitOpEvent())
}

func (m Model) waitOpEvent() tea.Cmd {
	events := m.opEvents
	return func() tea.Msg {
		return opEventMsg(<-events)
	}
}

func (m Model) waitWatch() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	ch := m.watcher.Refresh()
	return func() tea.Msg {
		dir, ok := <-ch
		if !ok {
			return nil
		}
		return watchMsg(dir)
	}
}

// finishOperation folds the engine report into the status line and
// refreshes both panes.
func (m *Model) finishOperation(rep *engine.Report) {
	m.mode = browseMode
	m.opCancel = nil
	m.opEvents = nil
	m.pane().DeselectAll()
	m.refreshAll()

	switch rep.State {
	case engine.StateCancelled:
		m.setError(fmt.Sprintf("%s cancelled: %d done, %d skipped", rep.Op, rep.SucceededCount(), rep.SkippedCount()))
	case engine.StateFailed:
		m.setError(fmt.Sprintf("%s failed: %v", rep.Op, rep.Err))
	default:
		if n := rep.FailedCount(); n > 0 {
			first := rep.Failures()[0]
			m.setError(fmt.Sprintf("%s finished with %d errors; first: %v", rep.Op, n, first.Err))
		} else if n := rep.SkippedCount(); n > 0 {
			m.setStatus(fmt.Sprintf("%s done: %d ok, %d skipped", rep.Op, rep.SucceededCount(), n))
		} else {
			m.setStatus(fmt.Sprintf("%s done: %d entries", rep.Op, rep.SucceededCount()))
		}
	}
}

// collisionPolicy maps the configured default onto the engine policy.
func (m *Model) collisionPolicy() engine.Policy {
	switch m.cfg.Confirm.Collision {
	case "overwrite":
		return engine.Overwrite
	case "skip":
		return engine.Skip
	default:
		return engine.Ask
	}
}
