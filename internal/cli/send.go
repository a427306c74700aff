package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/thinkchat/internal/models"
)

func newSendCmd(a *app) *cobra.Command {
	var childFlag string
	cmd := &cobra.Command{
		Use:   "send [child-id] <message>",
		Short: "Send a message",
		Long: `Send a message to a conversation.

With one argument the message goes to the default conversation (see
thinkchat use). With no arguments the body is read from stdin.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var childArgs []string
			var body string
			switch {
			case childFlag != "":
				childArgs = []string{childFlag}
				body = strings.Join(args, " ")
			case len(args) == 2:
				childArgs = args[:1]
				body = args[1]
			case len(args) == 1:
				body = args[0]
			}
			if body == "" && !a.isTTY() {
				data, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				body = strings.TrimRight(string(data), "\r\n")
			}
			if err := models.ValidateMessageText(body); err != nil {
				if errors.Is(err, models.ErrEmptyMessage) {
					return errors.New("message is empty")
				}
				return err
			}

			childID, err := a.resolveChild(childArgs)
			if err != nil {
				return err
			}
			coord, err := a.coordinator(ctx, childID)
			if err != nil {
				return err
			}
			msg, err := coord.Send(ctx, body)
			if err != nil {
				return explainAPIError(fmt.Errorf("send failed: %w", err))
			}

			if a.jsonOut {
				return writeJSON(a.stdout, map[string]any{
					"id":         msg.ID,
					"child":      childID,
					"created_at": msg.CreatedAt,
				})
			}
			fmt.Fprintf(a.stdout, "Sent message %d\n", msg.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&childFlag, "to", "", "child id (overrides the default conversation)")
	return cmd
}
