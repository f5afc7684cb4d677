package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cuonglevan23/ybproject"
)

// cli holds what every command needs once the root command has run
type cli struct {
	app   *yb.YB
	close func()
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, c := newRootCommand()
	defer c.release()

	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// release closes the session store and flushes the logger.
// Cobra skips post-run hooks when RunE fails.
func (c *cli) release() {
	c.close()
	c.close = func() {}
}

// authModeFor picks the flag, then YB_AUTH_MODE, then remote
func authModeFor(flag string) string {
	if flag != "" {
		return flag
	}
	if mode, ok := os.LookupEnv("YB_AUTH_MODE"); ok && mode != "" {
		return mode
	}
	return yb.AuthModeRemote
}

func newRootCommand() (*cobra.Command, *cli) {
	c := &cli{close: func() {}}

	var (
		baseURL  string
		authMode string
		verbose  bool
	)

	root := &cobra.Command{
		Use:           "yb",
		Short:         "Command line client for the YB channel-growth dashboard API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config, err := yb.ConfigFromEnv()
			if err != nil {
				return err
			}
			if baseURL != "" {
				config.Client.BaseURL = baseURL
			}
			config.AuthMode = authModeFor(authMode)
			if config.SessionFile == "" && config.DatabaseURL == "" {
				config.SessionFile = defaultSessionFile()
			}
			if !verbose {
				config.Logger = zap.NewNop()
			}

			store, closeStore, err := yb.OpenStore(cmd.Context(), config)
			if err != nil {
				return fmt.Errorf("failed to open session store: %w", err)
			}
			config.Store = store

			app, err := yb.New(config)
			if err != nil {
				closeStore()
				return err
			}
			c.app = app
			c.close = func() {
				_ = app.Logger.Sync()
				closeStore()
			}

			if err := app.Auth.InitializeAuth(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: session not restored: %v\n", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (overrides YB_API_BASE_URL)")
	root.PersistentFlags().StringVar(&authMode, "auth-mode", "", "demo or remote (overrides YB_AUTH_MODE, default remote)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests, retries and errors")

	root.AddCommand(
		c.loginCommand(),
		c.signupCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.overviewCommand(),
		c.keywordsCommand(),
		c.competitorsCommand(),
		c.chatCommand(),
		c.videoCommand(),
		c.getCommand(),
	)

	return root, c
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "yb", "session.json")
}
