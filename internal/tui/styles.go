package tui

import (
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"noxcmd/internal/config"
)

const (
	appName         = "noxcmd"
	version         = "v0.1"
	maxViewSize     = 10 * 1024 * 1024 // viewer refuses larger files
	fuzzyWalkLimit  = 4000             // entries collected for the jump index
	fuzzyShownLimit = 30
)

var (
	chromaStyle     = styles.Register(styles.Fallback)
	chromaFormatter = formatters.TTY256
)

// theme holds every style derived from the configured colors.
type theme struct {
	title       lipgloss.Style
	activePane  lipgloss.Style
	idlePane    lipgloss.Style
	paneHeader  lipgloss.Style
	cursorRow   lipgloss.Style
	selectedRow lipgloss.Style
	dirEntry    lipgloss.Style
	archEntry   lipgloss.Style
	linkEntry   lipgloss.Style
	errMsg      lipgloss.Style
	okMsg       lipgloss.Style
	prompt      lipgloss.Style
	fBar        lipgloss.Style
	dim         lipgloss.Style
}

func newTheme(cfg *config.Config) theme {
	accent := lipgloss.Color(cfg.Theme.Accent)
	return theme{
		title: lipgloss.NewStyle().
			Foreground(accent).
			Padding(0, 1).
			Bold(true),
		activePane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		idlePane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),
		paneHeader: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		cursorRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(accent).
			Bold(true),
		selectedRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color(cfg.Theme.Selection)).
			Bold(true),
		dirEntry:  lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Directory)).Bold(true),
		archEntry: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Archive)),
		linkEntry: lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
		errMsg:    lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Error)).Bold(true),
		okMsg:     lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		prompt: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		fBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		dim: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

const fBarContent = "1Help  2Rename  3View  5Copy  6Move  7Mkdir  8Delete  10Quit"
