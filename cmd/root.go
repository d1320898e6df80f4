// Package cmd implements the CLI commands for pledged.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pledged/logging"
)

// Version information set at build time
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// Global flags
var (
	globalLog       string
	globalLogFormat string
	globalDebug     bool
)

// rootCmd is the base command for pledged.
var rootCmd = &cobra.Command{
	Use:   "pledged",
	Short: "pledge(2)-style process sandboxing",
	Long: `pledged restricts a process and its children to a named set of
system-call promises, the way OpenBSD's pledge(2) restricts a process to
the syscalls it actually needs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns a context that cancels on SIGINT/SIGTERM.
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
}

func setupLogging() {
	logLevel := slog.LevelInfo
	if globalDebug {
		logLevel = slog.LevelDebug
	}

	logOutput := os.Stderr
	if globalLog != "" {
		if w, _, err := logging.OpenLockedFile(globalLog); err == nil {
			logging.SetDefault(logging.NewLogger(logging.Config{
				Level:  logLevel,
				Format: globalLogFormat,
				Output: w,
			}))
			return
		}
	}

	if globalLogFormat == "json" || globalDebug {
		logging.SetDefault(logging.NewLogger(logging.Config{
			Level:  logLevel,
			Format: globalLogFormat,
			Output: logOutput,
		}))
	}
}
