package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type mode int

const (
	browseMode mode = iota
	viewerMode
	promptMode
	confirmMode
	conflictMode
	progressMode
	fuzzyMode
	helpMode
)

type keyMap struct {
	quit       key.Binding
	enter      key.Binding
	back       key.Binding
	cancel     key.Binding
	tab        key.Binding
	up         key.Binding
	down       key.Binding
	pageUp     key.Binding
	pageDown   key.Binding
	home       key.Binding
	end        key.Binding
	selectIt   key.Binding
	selectAll  key.Binding
	invertSel  key.Binding
	globSelect key.Binding
	view       key.Binding
	copy       key.Binding
	move       key.Binding
	mkdir      key.Binding
	delete     key.Binding
	rename     key.Binding
	refresh    key.Binding
	hidden     key.Binding
	sort       key.Binding
	fuzzy      key.Binding
	help       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "f10"), key.WithHelp("q/F10", "quit")),
		enter:      key.NewBinding(key.WithKeys("enter", "l", "right"), key.WithHelp("enter", "enter")),
		back:       key.NewBinding(key.WithKeys("backspace", "h", "left"), key.WithHelp("backspace", "parent")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		up:         key.NewBinding(key.WithKeys("k", "up")),
		down:       key.NewBinding(key.WithKeys("j", "down")),
		pageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+b")),
		pageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+f")),
		home:       key.NewBinding(key.WithKeys("home", "g")),
		end:        key.NewBinding(key.WithKeys("end", "G")),
		selectIt:   key.NewBinding(key.WithKeys(" ", "insert"), key.WithHelp("space", "select")),
		selectAll:  key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "select all")),
		invertSel:  key.NewBinding(key.WithKeys("*"), key.WithHelp("*", "invert selection")),
		globSelect: key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "select by pattern")),
		view:       key.NewBinding(key.WithKeys("f3", "v"), key.WithHelp("F3", "view")),
		copy:       key.NewBinding(key.WithKeys("f5", "c"), key.WithHelp("F5", "copy")),
		move:       key.NewBinding(key.WithKeys("f6", "m"), key.WithHelp("F6", "move")),
		mkdir:      key.NewBinding(key.WithKeys("f7"), key.WithHelp("F7", "mkdir")),
		delete:     key.NewBinding(key.WithKeys("f8", "delete"), key.WithHelp("F8", "delete")),
		rename:     key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "rename")),
		refresh:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		hidden:     key.NewBinding(key.WithKeys("ctrl+h", "."), key.WithHelp(".", "toggle hidden")),
		sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
		fuzzy:      key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "jump")),
		help:       key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("F1", "help")),
	}
}

func helpString(b key.Binding) string {
	h := b.Help()
	return h.Key + ": " + h.Desc
}
