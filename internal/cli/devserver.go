package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/thinkchat/internal/devserver"
)

func newDevServerCmd(a *app) *cobra.Command {
	var addr string
	var seed bool
	var clockOffset time.Duration
	cmd := &cobra.Command{
		Use:     "devserver",
		Aliases: []string{"dev-server"},
		Short:   "Run a local messaging API for development",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.DevServer.Addr
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.DevServer.Seed
			}

			now := func() time.Time { return time.Now().Add(clockOffset) }
			store := devserver.NewStore()
			store.SetClock(now)
			if seed {
				if err := store.Seed(now()); err != nil {
					return fmt.Errorf("seed dev server: %w", err)
				}
				fmt.Fprintf(a.stdout, "Demo login: %s / %s\n", devserver.DemoEmail, devserver.DemoPassword)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(a.stdout, "Serving on http://%s (ctrl+c to stop)\n", addr)
			return devserver.New(store).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().BoolVar(&seed, "seed", true, "load demo account and conversations")
	cmd.Flags().DurationVar(&clockOffset, "clock-offset", 0, "shift server timestamps, e.g. -2m to simulate a server clock behind the client")
	return cmd
}
