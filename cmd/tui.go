package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/podlens/podlens/internal/playback"
	"github.com/podlens/podlens/internal/shared"
	"github.com/podlens/podlens/internal/ui"
)

// TUI launches the interactive terminal UI for episode analysis.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: analysis engine not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/podlens-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	syncer := playback.NewSynchronizer(fileLogger, playback.OptionsFromConfig(r.config.Playback))

	model := ui.NewModel(ctx, r.engine, syncer, nil)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
