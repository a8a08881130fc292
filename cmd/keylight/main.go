// Package main provides the keylight CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/keylight/cli"
)

var (
	// Global flags
	dbPath    string
	logLevel  string
	logFormat string
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "keylight",
		Short: "Extract and highlight key phrases on web pages",
		Long: `keylight segments a page into text units, asks a language model for the
key phrases of each unit, and wraps the matches in highlight markup.

Results are cached per (origin, content hash) so revisiting unchanged
content never repeats an API call. Run it directly on a URL or file, or
as the native-messaging host behind the browser extension.`,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the cache database (default: KEYLIGHT_DB or ~/.keylight/keylight.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(hostCmd())
	rootCmd.AddCommand(autoCmd())
	rootCmd.AddCommand(cacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{DBPath: dbPath, LogLevel: logLevel, LogFormat: logFormat}
}

func analyzeCmd() *cobra.Command {
	var output string
	var clear bool

	cmd := &cobra.Command{
		Use:   "analyze [url|file]",
		Short: "Analyze a page and write the highlighted HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Analyze(context.Background(), args[0], output, clear, options())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write highlighted HTML to this file (default: stdout)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Strip existing highlights instead of analyzing")

	return cmd
}

func hostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Run as the browser extension's native messaging host",
		Long: `Serve length-prefixed JSON messages on stdin/stdout until the browser
closes the pipe. Register this command in the extension's native
messaging manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunHost(context.Background(), options())
		},
	}
}

func autoCmd() *cobra.Command {
	var enable bool
	var disable bool

	cmd := &cobra.Command{
		Use:   "auto [origin]",
		Short: "Show or change auto-highlight for an origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}
			ctx := context.Background()
			switch {
			case enable:
				return cli.SetAutoHighlight(ctx, args[0], true, options())
			case disable:
				return cli.SetAutoHighlight(ctx, args[0], false, options())
			default:
				return cli.ShowAutoHighlight(ctx, args[0], options())
			}
		},
	}

	cmd.Flags().BoolVar(&enable, "enable", false, "Enable auto-highlight for the origin")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable auto-highlight for the origin")

	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Remove cache entries and URL markers past the expiration window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.SweepCache(context.Background(), options())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear [origin]",
		Short: "Remove all cached state for one origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ClearOriginCache(context.Background(), args[0], options())
		},
	})

	return cmd
}
