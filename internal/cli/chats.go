package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newChatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "chats",
		Aliases: []string{"children"},
		Short:   "List conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			children, err := client.ListChildren(ctx)
			if err != nil {
				return explainAPIError(err)
			}
			if a.jsonOut {
				return writeJSON(a.stdout, children)
			}
			if len(children) == 0 {
				fmt.Fprintln(a.stdout, "No conversations found.")
				return nil
			}

			current := ""
			if saved, err := a.contextStore().Load(); err == nil {
				current = saved.ChildID
			}
			rows := make([][]string, 0, len(children))
			for _, child := range children {
				marker := ""
				if child.ID == current {
					marker = "*"
				}
				rows = append(rows, []string{marker, child.ID, child.DisplayName()})
			}
			return writeTable(a.stdout, []string{"", "ID", "NAME"}, rows)
		},
	}
}

func newUseCmd(a *app) *cobra.Command {
	var clearDefault bool
	cmd := &cobra.Command{
		Use:   "use [child-id]",
		Short: "Set the default conversation",
		Long:  "Set the conversation that messages and send use when no child id is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.contextStore()
			saved, err := store.Load()
			if err != nil {
				return err
			}

			if clearDefault {
				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, "Cleared default conversation")
				return nil
			}
			if len(args) == 0 {
				fmt.Fprintln(a.stdout, saved.String())
				return nil
			}

			ctx := cmd.Context()
			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			children, err := client.ListChildren(ctx)
			if err != nil {
				return explainAPIError(err)
			}
			id := strings.TrimSpace(args[0])
			for _, child := range children {
				if child.ID == id {
					saved.SetConversation(child.ID, child.DisplayName())
					if err := store.Save(saved); err != nil {
						return err
					}
					fmt.Fprintf(a.stdout, "Now using %s\n", saved.String())
					return nil
				}
			}
			return fmt.Errorf("no conversation with id %q (see thinkchat chats)", id)
		},
	}
	cmd.Flags().BoolVar(&clearDefault, "clear", false, "clear the default conversation")
	return cmd
}
