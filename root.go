package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sncloud/sncloud-go/internal/config"
	"github.com/sncloud/sncloud-go/internal/supernote"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// httpClientTimeout is the default timeout for HTTP requests. Server-side
// PDF and PNG conversions can take a while on large notes, so this is
// deliberately generous.
const httpClientTimeout = 60 * time.Second

// envBaseURL overrides the API endpoint. Used to point the CLI at a
// local stub server in integration tests.
const envBaseURL = "SNCLOUD_BASE_URL"

// defaultHTTPClient returns an HTTP client with a sensible timeout.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sncloud",
		Short:   "Supernote Cloud CLI client",
		Long:    "A command-line client for Supernote Cloud: browse, download, upload, and manage files by path.",
		Version: version,
		// Silence cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newRmCmd())

	return cmd
}

// buildLogger creates an slog.Logger configured by the verbosity flags:
// --verbose selects debug, --quiet errors only.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newAPIClient builds a client carrying the persisted login token. The
// token is not verified against the service here; a stale token surfaces
// as an error on first use.
func newAPIClient(logger *slog.Logger) (*supernote.Client, error) {
	cfg, err := config.Load(config.ResolvePath(flagConfigPath))
	if err != nil {
		return nil, err
	}

	if cfg == nil || cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: run 'sncloud login' first", supernote.ErrAuthRequired)
	}

	client := supernote.NewClient(os.Getenv(envBaseURL), defaultHTTPClient(), logger)
	client.SetAccessToken(cfg.AccessToken)

	return client, nil
}

// exitOnError prints a user-facing error message to stdout and exits
// non-zero. Commands surface all failures through their error return;
// nothing is retried or recovered here.
func exitOnError(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}
