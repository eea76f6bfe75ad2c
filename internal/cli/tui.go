// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ashzansoc/darkchat-fusion/internal/config"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/chat"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/components"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

func newTUICommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

// runTUI runs the Bubble Tea chat until the user quits or ctx ends.
func runTUI(ctx context.Context, opts *GlobalOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp("tui", opts, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.serveMetrics(ctx)

	theme := styles.NewTheme(styles.ParseMode(a.cfg.UI.Theme))
	events := chat.NewEvents()
	ctl := a.controller(events)

	m := chat.New(ctl, events, theme, chatOptions(a))
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	a.log.Info().Str("version", Version).Msg("starting TUI")
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// chatOptions maps configuration onto the chat view.
func chatOptions(a *app) chat.Options {
	return chat.Options{
		Title:         a.cfg.UI.Title,
		Subtitle:      a.cfg.UI.Subtitle,
		Chips:         chips(a.cfg.Session.Suggestions),
		ShowCitations: a.cfg.UI.ShowCitations,
		Markdown:      a.cfg.UI.Markdown,
		Logger:        &a.log,
	}
}

func chips(suggestions []config.Suggestion) []components.Chip {
	out := make([]components.Chip, len(suggestions))
	for i, s := range suggestions {
		out[i] = components.Chip{Title: s.Title, Subtitle: s.Subtitle}
	}
	return out
}
