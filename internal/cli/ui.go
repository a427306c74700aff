package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/thinkchat/internal/chattui"
)

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [child-id]",
		Short: "Launch the chat TUI",
		Long:  "Launch the terminal chat interface, optionally opening a conversation directly.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			childID := ""
			if len(args) > 0 {
				childID = args[0]
			}
			return a.runUI(cmd.Context(), childID)
		},
	}
}

func (a *app) runUI(ctx context.Context, childID string) error {
	if !a.isTTY() {
		return &PreflightError{
			Message:  "the chat UI requires an interactive terminal",
			Hint:     "Use the messages and send subcommands from scripts",
			NextStep: "thinkchat --help",
		}
	}

	client, err := a.client(ctx)
	if err != nil {
		return err
	}
	loc, err := a.cfg.TimelineLocation()
	if err != nil {
		return err
	}
	return chattui.Run(ctx, chattui.Config{
		Source:              client,
		Theme:               a.cfg.TUI.Theme,
		RefreshInterval:     a.cfg.TUI.RefreshInterval,
		GroupWindow:         a.cfg.Timeline.GroupWindow,
		ClockFormat:         a.cfg.Timeline.ClockFormat,
		Location:            loc,
		InitialConversation: childID,
	})
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
