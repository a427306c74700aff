package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/thinkchat/internal/api"
	"github.com/tOgg1/thinkchat/internal/logging"
)

func newLoginCmd(a *app) *cobra.Command {
	var email string
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your parent account",
		Long:  "Sign in with your parent account and store the session token locally.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reader := bufio.NewReader(a.stdin)

			email = strings.TrimSpace(email)
			if email == "" {
				if !a.isTTY() {
					return &PreflightError{
						Message:  "email is required",
						Hint:     "Pass --email when not running in a terminal",
						NextStep: "thinkchat login --email you@example.com --password-stdin",
					}
				}
				fmt.Fprint(a.stdout, "Email: ")
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read email: %w", err)
				}
				email = strings.TrimSpace(line)
			}

			var password string
			if passwordStdin {
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			} else {
				if !a.isTTY() {
					return &PreflightError{
						Message:  "cannot prompt for a password without a terminal",
						Hint:     "Pipe the password and pass --password-stdin",
						NextStep: "echo \"$PASSWORD\" | thinkchat login --email " + emailOrPlaceholder(email) + " --password-stdin",
					}
				}
				p, err := a.readPass("Password: ")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = p
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			client, err := a.client(ctx)
			if err != nil {
				return err
			}
			token, err := client.Authenticate(ctx, email, password)
			if err != nil {
				var authErr *api.AuthError
				if errors.As(err, &authErr) {
					return errors.New(authErr.Message)
				}
				return err
			}

			store, err := a.credentialStore(ctx)
			if err != nil {
				return err
			}
			if err := store.SetToken(ctx, token); err != nil {
				return err
			}
			logging.Logger.Debug().Str("email", email).Msg("signed in")

			if a.jsonOut {
				return writeJSON(a.stdout, map[string]any{"signed_in": true, "email": email})
			}
			fmt.Fprintf(a.stdout, "Signed in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.credentialStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(a.stdout, map[string]any{"signed_in": false})
			}
			fmt.Fprintln(a.stdout, "Signed out")
			return nil
		},
	}
}

func emailOrPlaceholder(email string) string {
	if email == "" {
		return "you@example.com"
	}
	return email
}

func readPasswordFromTerminal(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
