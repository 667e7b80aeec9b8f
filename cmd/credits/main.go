// Package main provides the entry point for the credits CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"

	globalLogLevel    string
	globalMetricsFile string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "credits",
		Short:         "Credit people and groups on productions by name",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&globalMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the command")

	rootCmd.AddCommand(
		newInitCmd(),
		newReleaserCmd(),
		newSearchCmd(),
		newCompleteCmd(),
		newResolveCmd(),
		newBylineCmd(),
		newCreditCmd(),
		newProductionCmd(),
		newImportCmd(),
		newExportCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
