package tui

import (
	"context"
	"strings"
	"time"

	"addrview/pkg/config"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// Version is set by Start()
var Version = "dev"

const statusTimeout = 2 * time.Second

// --- Model ---

type model struct {
	ctx        context.Context
	ds         DataSource
	cfg        config.Config
	configPath string
	logger     zerolog.Logger

	view        addressView
	history     []location
	bookmarkIdx int

	width         int
	height        int
	spinner       spinner.Model
	searchInput   textinput.Model
	searching     bool
	showHelp      bool
	showGraph     bool
	statusMessage string
	windowTitle   string
}

func initialModel(ctx context.Context, ds DataSource, cfg config.Config, configPath string, loc location, logger zerolog.Logger) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "hash, address or block"
	ti.Width = 40

	m := model{
		ctx:         ctx,
		ds:          ds,
		cfg:         cfg,
		configPath:  configPath,
		logger:      logger,
		spinner:     s,
		searchInput: ti,
		bookmarkIdx: -1,
	}
	for i, a := range cfg.Addresses {
		if strings.EqualFold(a.Address, loc.addr) {
			m.bookmarkIdx = i
			break
		}
	}
	m.view = m.newView(loc)
	return m
}

func (m model) newView(loc location) addressView {
	return newAddressView(m.ds, newLifecycle(m.ctx), loc, viewOptions{
		pageLength: m.cfg.PageLength,
		logger:     m.logger,
	})
}

// startMsg activates the first view. Init cannot change the model, so
// activation happens in Update.
type startMsg struct{}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg { return startMsg{} })
}
