package tui

import (
	"fmt"
	"sort"
	"strings"

	"addrview/pkg/models"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/rs/zerolog"
)

// contractPanel shows verified source for the subject address. It loads
// once, when first mounted, and never retries or polls.
type contractPanel struct {
	addr     string
	mounted  bool
	loading  bool
	loaded   bool
	artifact models.ContractArtifact
	methods  []string
	abiErr   error
	err      error
	viewport viewport.Model
}

func newContractPanel(addr string) contractPanel {
	return contractPanel{addr: addr, viewport: viewport.New(0, 0)}
}

// mount issues the lookup on the first call only.
func (p contractPanel) mount(v *addressView) (contractPanel, tea.Cmd) {
	if p.mounted {
		return p, nil
	}
	p.mounted = true
	p.loading = true
	return p, fetchContractCmd(v.life.context(), v.ds, v.life.token, p.addr)
}

func (p contractPanel) apply(msg contractMsg, logger zerolog.Logger) contractPanel {
	if !p.loading {
		return p
	}
	p.loading = false
	p.loaded = true
	if msg.err != nil {
		logger.Warn().Err(msg.err).Str("addr", p.addr).Msg("contract lookup failed")
		p.err = msg.err
		return p
	}
	p.err = nil
	p.artifact = msg.artifact
	if msg.artifact.Found && msg.artifact.ABI != "" {
		p.methods, p.abiErr = abiSignatures(msg.artifact.ABI)
		if p.abiErr != nil {
			logger.Debug().Err(p.abiErr).Str("addr", p.addr).Msg("unparseable abi")
		}
	}
	p.viewport.SetContent(p.body())
	p.viewport.GotoTop()
	return p
}

func (p contractPanel) setSize(width, height int) contractPanel {
	p.viewport.Width = width
	p.viewport.Height = height
	return p
}

func (p contractPanel) update(msg tea.Msg) (contractPanel, tea.Cmd) {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// abiSignatures lists the functions and events declared by an ABI, sorted
// by name.
func abiSignatures(abiJSON string) ([]string, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range sortedKeys(parsed.Methods) {
		out = append(out, parsed.Methods[name].String())
	}
	for _, name := range sortedKeys(parsed.Events) {
		out = append(out, parsed.Events[name].String())
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p contractPanel) body() string {
	a := p.artifact
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(a.ContractName))
	fmt.Fprintf(&b, "Compiler:     %s\n", a.CompilerVersion)
	optimized := "No"
	if a.Optimization {
		optimized = "Yes"
	}
	fmt.Fprintf(&b, "Optimization: %s\n\n", optimized)

	if len(p.methods) > 0 {
		b.WriteString(subtleStyle.Render("ABI") + "\n")
		for _, m := range p.methods {
			b.WriteString("  " + m + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(subtleStyle.Render("Source") + "\n")
	b.WriteString(a.SourceCode)
	return b.String()
}

func (p contractPanel) view() string {
	switch {
	case !p.mounted || p.loading:
		return subtleStyle.Render("Looking up contract source...")
	case p.err != nil:
		return errStyle.Render(fmt.Sprintf("Contract lookup failed: %v", p.err))
	case !p.artifact.Found:
		return subtleStyle.Render("No verified source for this contract.")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		p.viewport.View(),
		subtleStyle.Render(fmt.Sprintf("%3.f%%", p.viewport.ScrollPercent()*100)),
	)
}
