package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/scenecredits/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import people and groups from JSON or CSV",
		Long: `Imports releasers from a structured file. Rows naming an existing
releaser of the same kind are skipped. Groups a row refers to are
created when missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	if flags.format != "auto" && !contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.ImportHandler.Handle(ctx, filePath, handlers.ImportOptions{
			Format: flags.format,
			DryRun: flags.dryRun,
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nErrors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  line %d (%s): %s\n", e.Line, e.Name, e.Message)
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d releasers would be imported", result.Imported)
		} else {
			fmt.Printf("Imported: %d releasers", result.Imported)
		}

		if result.GroupsCreated > 0 {
			fmt.Printf(", %d groups created", result.GroupsCreated)
		}

		if result.Skipped > 0 {
			fmt.Printf(", %d skipped (already exist)", result.Skipped)
		}

		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}

		fmt.Println()

		return nil
	})
}
