// Package cli implements the thinkchat command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/thinkchat/internal/api"
	"github.com/tOgg1/thinkchat/internal/config"
	"github.com/tOgg1/thinkchat/internal/credentials"
	"github.com/tOgg1/thinkchat/internal/logging"
)

// Execute runs the thinkchat CLI.
func Execute(version string) error {
	return newRootCmd(version, newApp()).Execute()
}

// app holds global flags and the lazily opened resources commands share.
type app struct {
	configFile string
	logLevel   string
	logFormat  string
	apiURL     string
	jsonOut    bool

	cfg   *config.Config
	store credentials.Store

	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	isTTY    func() bool
	readPass func(prompt string) (string, error)
}

func newApp() *app {
	return &app{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		isTTY:    hasTTY,
		readPass: readPasswordFromTerminal,
	}
}

func newRootCmd(version string, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "thinkchat",
		Short:         "Message your children's classroom accounts from the terminal",
		Long:          "thinkchat lists conversations with your children and lets you read and send messages.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.isTTY() {
				return cmd.Help()
			}
			return a.runUI(cmd.Context(), "")
		},
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ~/.config/thinkchat/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error|off")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console|json")
	flags.StringVar(&a.apiURL, "api-url", "", "messaging API base URL")
	flags.BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")

	cmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newChatsCmd(a),
		newUseCmd(a),
		newMessagesCmd(a),
		newSendCmd(a),
		newUICmd(a),
		newDevServerCmd(a),
	)
	return cmd
}

// setup loads configuration and initializes logging.
func (a *app) setup(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	if a.apiURL != "" {
		loader.Set("api.base_url", a.apiURL)
	}
	if a.logLevel != "" {
		loader.Set("logging.level", a.logLevel)
	}
	if a.logFormat != "" {
		loader.Set("logging.format", a.logFormat)
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       a.stderr,
		EnableCaller: cfg.Logging.EnableCaller,
	}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logCfg.Output = f
	} else if usesFullScreen(cmd) {
		// Log lines would corrupt the alternate screen.
		logCfg.Level = "off"
	}
	logging.Init(logCfg)
	logging.Logger.Debug().Str("config", loader.ConfigFileUsed()).Str("api", cfg.API.BaseURL).Msg("config loaded")
	return nil
}

func usesFullScreen(cmd *cobra.Command) bool {
	return cmd.Name() == "ui" || cmd.Name() == "thinkchat"
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// credentialStore opens the configured token store once per run.
func (a *app) credentialStore(ctx context.Context) (credentials.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if err := a.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	store, err := credentials.Open(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	a.store = store
	return store, nil
}

// client returns an API client authenticated from the store, or from
// api.token when it is configured.
func (a *app) client(ctx context.Context) (*api.Client, error) {
	store, err := a.credentialStore(ctx)
	if err != nil {
		return nil, err
	}
	return api.New(api.Config{
		BaseURL:   a.cfg.API.BaseURL,
		Timeout:   a.cfg.API.Timeout,
		UserAgent: a.cfg.API.UserAgent,
	}, credentials.Override(a.cfg.API.Token, store))
}

func (a *app) contextStore() *config.ContextStore {
	return config.NewContextStore(a.cfg.ContextPath())
}

// resolveChild picks the conversation from args or the saved context.
func (a *app) resolveChild(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	saved, err := a.contextStore().Load()
	if err != nil {
		return "", err
	}
	if saved.IsEmpty() {
		return "", &PreflightError{
			Message:  "no conversation selected",
			Hint:     "Pass a child id or pick a default conversation",
			NextStep: "thinkchat chats && thinkchat use <child-id>",
		}
	}
	return saved.ChildID, nil
}
