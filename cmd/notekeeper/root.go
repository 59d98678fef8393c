package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeeper"
)

// closeTimeout bounds how long a command waits for background refreshes.
const closeTimeout = 5 * time.Second

var (
	verbose     bool
	configPath  string
	apiURL      string
	sessionPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notekeeper",
	Short: "A command-line client for the notes backend",
	Long: `notekeeper keeps your notes on a remote server and your session on disk.
Log in once; every other command reuses the stored token until the server rejects it.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: nearest .notekeeper.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API origin (overrides config and $"+"NOTEKEEPER_API_URL)")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "Session file path")
}

// terminalNavigator tells the user where to go when the session expires.
type terminalNavigator struct{}

func (terminalNavigator) Navigate(path string) {
	fmt.Fprintf(os.Stderr, "session expired (%s): run `notekeeper login`\n", path)
}

// openApp builds the App from flags and the nearest config file. extra options
// are applied last and win over both.
func openApp(extra ...notekeeper.Option) (*notekeeper.App, error) {
	opts := []notekeeper.Option{
		notekeeper.WithLogger(slog.Default()),
		notekeeper.WithNavigator(terminalNavigator{}),
		notekeeper.WithUserAgent("notekeeper-cli/" + version()),
	}

	cfg := configPath
	if cfg == "" {
		if wd, err := os.Getwd(); err == nil {
			found, err := notekeeper.FindConfig(wd)
			switch {
			case err == nil:
				cfg = found
			case !errors.Is(err, notekeeper.ErrConfigNotFound):
				return nil, err
			}
		}
	}
	if cfg != "" {
		slog.Debug("using config", "path", cfg)
		opts = append(opts, notekeeper.WithConfigFile(cfg))
	}
	if apiURL != "" {
		opts = append(opts, notekeeper.WithBaseURL(apiURL))
	}
	if sessionPath != "" {
		opts = append(opts, notekeeper.WithSessionPath(sessionPath))
	}

	return notekeeper.New(append(opts, extra...)...)
}

// withApp opens the App, runs fn and closes the App, waiting briefly for
// background refreshes started by fn.
func withApp(fn func(ctx context.Context, app *notekeeper.App) error, extra ...notekeeper.Option) error {
	app, err := openApp(extra...)
	if err != nil {
		return err
	}

	ctx := context.Background()
	runErr := fn(ctx, app)

	closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		slog.Warn("background work did not finish", "error", err)
	}
	return runErr
}
