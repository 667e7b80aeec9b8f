package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/scenecredits/internal/infrastructure/parsers"
)

type exportFlags struct {
	format string
	output string
	limit  int
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export people and groups to file",
		Long:  "Exports releasers in the format read by import, so a database can be copied.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultExportLimit, "Maximum number of releasers to export")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
		releasers, err := d.ReleaserHandler.HandleExport(ctx, flags.limit)
		if err != nil {
			return fmt.Errorf("listing releasers: %w", err)
		}

		if len(releasers) == 0 {
			return fmt.Errorf("no releasers found to export")
		}

		return export(releasers, flags.format, flags.output)
	})
}

func export(releasers []parsers.RawReleaser, format, output string) (err error) {
	var w io.Writer
	var f *os.File

	if output != "" {
		f, err = os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	} else {
		w = os.Stdout
	}

	if err := formatReleasers(w, format, releasers); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if output != "" {
		fmt.Printf("Exported %d releasers to %s\n", len(releasers), output)
	}

	return nil
}

func formatReleasers(w io.Writer, format string, releasers []parsers.RawReleaser) error {
	switch format {
	case "json":
		return formatJSON(w, releasers)
	case "csv":
		return formatCSV(w, releasers)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func formatJSON(w io.Writer, releasers []parsers.RawReleaser) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(releasers)
}

func formatCSV(w io.Writer, releasers []parsers.RawReleaser) error {
	writer := csv.NewWriter(w)

	header := []string{"name", "kind", "country", "aliases", "groups"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range releasers {
		row := []string{
			r.Name,
			r.Kind,
			r.Country,
			strings.Join(r.Aliases, ";"),
			strings.Join(r.Groups, ";"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
