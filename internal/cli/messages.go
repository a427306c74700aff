package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/thinkchat/internal/conversation"
	"github.com/tOgg1/thinkchat/internal/logging"
	"github.com/tOgg1/thinkchat/internal/models"
	"github.com/tOgg1/thinkchat/internal/timeline"
)

type messageJSON struct {
	ID            int64     `json:"id"`
	Sender        string    `json:"sender"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	ShowTimestamp bool      `json:"show_timestamp"`
	Label         string    `json:"label,omitempty"`
}

func newMessagesCmd(a *app) *cobra.Command {
	var follow bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:     "messages [child-id]",
		Aliases: []string{"log"},
		Short:   "Show a conversation",
		Long:    "Show the messages in a conversation, oldest first, with a timestamp under each group.",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			childID, err := a.resolveChild(args)
			if err != nil {
				return err
			}
			coord, err := a.coordinator(ctx, childID)
			if err != nil {
				return err
			}
			if err := coord.Reconcile(ctx); err != nil {
				return explainAPIError(err)
			}

			printer, err := a.timelinePrinter()
			if err != nil {
				return err
			}
			entries := coord.Timeline()
			if a.jsonOut && !follow {
				return writeJSON(a.stdout, printer.toJSON(entries))
			}
			if !follow {
				printer.printGrouped(a.stdout, entries)
				return nil
			}

			if interval <= 0 {
				interval = a.cfg.TUI.RefreshInterval
			}
			return a.follow(ctx, coord, printer, interval)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new messages")
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval with --follow (default: tui.refresh_interval)")
	return cmd
}

// follow prints the current list, then each new confirmed message as it
// arrives, until ctx is cancelled.
func (a *app) follow(ctx context.Context, coord *conversation.Coordinator, printer *timelinePrinter, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	seen := make(map[int64]bool)
	emit := func(msgs []models.Message) error {
		for _, msg := range msgs {
			if msg.IsProvisional() || seen[msg.ID] {
				continue
			}
			seen[msg.ID] = true
			if a.jsonOut {
				if err := writeJSONLine(a.stdout, printer.messageJSON(timeline.Entry{Message: msg, ShowTimestamp: true})); err != nil {
					return err
				}
				continue
			}
			printer.printLine(a.stdout, msg)
		}
		return nil
	}

	updates, cancel := coord.Subscribe()
	defer cancel()

	poller := conversation.NewPoller(conversation.PollerConfig{
		Interval: interval,
		OnError: func(err error) {
			logging.Logger.Warn().Err(err).Str("child", coord.ID()).Msg("refresh failed")
		},
	}, coord)
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = poller.Stop() }()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := emit(snap.Messages); err != nil {
				return err
			}
		}
	}
}

// coordinator builds a Coordinator backed by the API client and the
// configured grouping window.
func (a *app) coordinator(ctx context.Context, childID string) (*conversation.Coordinator, error) {
	client, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	return conversation.New(childID, client, conversation.Options{
		GroupWindow: a.cfg.Timeline.GroupWindow,
	}), nil
}

type timelinePrinter struct {
	format string
	loc    *time.Location
}

func (a *app) timelinePrinter() (*timelinePrinter, error) {
	loc, err := a.cfg.TimelineLocation()
	if err != nil {
		return nil, err
	}
	return &timelinePrinter{format: a.cfg.Timeline.ClockFormat, loc: loc}, nil
}

func (p *timelinePrinter) label(ts time.Time) string {
	return timeline.Label(ts, p.format, p.loc)
}

// printGrouped writes each message on its own line and the shared
// timestamp once, under the last message of its group.
func (p *timelinePrinter) printGrouped(w io.Writer, entries []timeline.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	for i, group := range timeline.Groups(entries) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		for _, entry := range group.Entries {
			fmt.Fprintf(w, "%s: %s\n", senderName(entry.Message), entry.Message.Text)
			if entry.ShowTimestamp {
				fmt.Fprintf(w, "  %s\n", p.label(entry.Message.CreatedAt))
			}
		}
	}
}

func (p *timelinePrinter) printLine(w io.Writer, msg models.Message) {
	fmt.Fprintf(w, "[%s] %s: %s\n", p.label(msg.CreatedAt), senderName(msg), msg.Text)
}

func (p *timelinePrinter) messageJSON(entry timeline.Entry) messageJSON {
	out := messageJSON{
		ID:            entry.Message.ID,
		Sender:        string(entry.Message.Sender),
		Text:          entry.Message.Text,
		CreatedAt:     entry.Message.CreatedAt,
		ShowTimestamp: entry.ShowTimestamp,
	}
	if entry.ShowTimestamp {
		out.Label = p.label(entry.Message.CreatedAt)
	}
	return out
}

func (p *timelinePrinter) toJSON(entries []timeline.Entry) []messageJSON {
	out := make([]messageJSON, 0, len(entries))
	for _, entry := range entries {
		out = append(out, p.messageJSON(entry))
	}
	return out
}

func senderName(msg models.Message) string {
	if msg.FromSelf() {
		return "You"
	}
	return string(msg.Sender)
}
