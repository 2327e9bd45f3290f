package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "accountdesk-admin",
	Short: "Operate the accountdesk credential store",
	Long: `Provision the credential schema, manage the operator allow-list and
generate the secrets the API server expects.

Store settings are read from the same environment (and .env file) as the API.

Examples:
  accountdesk-admin migrate
  accountdesk-admin allow add ana.quispe@example.com
  accountdesk-admin hash-secret
  accountdesk-admin activity ana.quispe@example.com --limit 5`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// newLogger writes structured logs to stderr so stdout carries only command output
func newLogger() *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
