// Package main is the entry point for the tweetcron CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/flemzord/tweetcron/internal/core"
	"github.com/flemzord/tweetcron/internal/cron"
	"github.com/flemzord/tweetcron/pkg/app"

	_ "github.com/flemzord/tweetcron/internal/gateway"
	_ "github.com/flemzord/tweetcron/internal/tweet"
	_ "github.com/flemzord/tweetcron/modules/poster/twitter"
	_ "github.com/flemzord/tweetcron/modules/store/sqlite"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tweetcron",
		Short:         "Schedule and post tweets on cron expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd(), cronCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tweetcron %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintln(out, "\nCompiled modules:")
			for _, mod := range core.GetModules() {
				fmt.Fprintf(out, "  %s\n", mod.ID)
			}
		},
	}
}

func startCmd() *cobra.Command {
	var params app.RunParams
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP gateway and the scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params.Version, params.Commit, params.Date = version, commit, date
			params.Stderr = cmd.ErrOrStderr()
			return app.Run(params)
		},
	}
	cmd.Flags().StringVarP(&params.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&params.DataDir, "data-dir", "", "Directory for persistent data")
	cmd.Flags().StringVar(&params.LogLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	var dataDir string
	check := &cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration and provision every module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := app.Check(app.RunParams{
				ConfigPath: args[0],
				DataDir:    dataDir,
				LogLevel:   "error",
				Stderr:     cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK (%d modules)\n", len(ids))
			for _, id := range ids {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return nil
		},
	}
	check.Flags().StringVar(&dataDir, "data-dir", "", "Directory for persistent data")
	cmd.AddCommand(check)
	return cmd
}

func cronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Cron expression helpers",
	}

	var (
		count int
		tz    string
	)
	next := &cobra.Command{
		Use:   "next <expression>",
		Short: "Print the next activation times of a cron expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := time.Local
			if tz != "" {
				var err error
				if loc, err = time.LoadLocation(tz); err != nil {
					return fmt.Errorf("invalid timezone %q: %w", tz, err)
				}
			}
			runs, err := cron.NextRuns(args[0], time.Now().In(loc), count)
			if err != nil {
				return err
			}
			for _, t := range runs {
				fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339))
			}
			return nil
		},
	}
	next.Flags().IntVarP(&count, "count", "n", 5, "Number of activations to print")
	next.Flags().StringVar(&tz, "tz", "", "IANA timezone (default: local)")
	cmd.AddCommand(next)
	return cmd
}
