package tui

import (
	"context"
	"fmt"

	"addrview/pkg/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// Start runs the address viewer on target ("0x...", "0x...#tab" or an
// explorer /addr/ path) until the user quits.
func Start(ctx context.Context, ds DataSource, cfg config.Config, configPath, target, version string, logger zerolog.Logger) error {
	Version = version
	loc, err := parseLocation(target)
	if err != nil {
		return err
	}
	p := tea.NewProgram(
		initialModel(ctx, ds, cfg, configPath, loc, logger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
