package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/scenecredits/internal/application/handlers"
	"github.com/ersonp/scenecredits/internal/domain/services"
)

func newBylineCmd() *cobra.Command {
	var (
		complete bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "byline <text>",
		Short: "Parse a byline without saving",
		Long: `Splits a byline into authors and affiliations and resolves every name.
Authors come before the first "/", affiliations after it; names are
separated by ",", "+", "&" or "^".

Examples:
  credits byline "Gasman / Hooy-Program"
  credits byline "Gasman, Hoffman / Raw" --complete`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				parsed, err := d.BylineHandler.HandleParse(ctx, args[0], complete)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), parsed)
				}
				displayParsed(parsed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&complete, "complete", false, "Autocomplete the last name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func displayParsed(parsed *services.ParsedByline) {
	text := parsed.Text
	if parsed.Suffix != "" {
		text = strings.TrimSuffix(text, parsed.Suffix) + "[" + parsed.Suffix + "]"
	}
	fmt.Printf("Byline: %s\n", text)

	if len(parsed.Authors) > 0 {
		fmt.Println("\nAuthors:")
		for _, nr := range parsed.Authors {
			displayResolver(os.Stdout, nr, "  ")
		}
	}
	if len(parsed.Affiliations) > 0 {
		fmt.Println("\nAffiliations:")
		for _, nr := range parsed.Affiliations {
			displayResolver(os.Stdout, nr, "  ")
		}
	}

	if !parsed.Resolved() {
		fmt.Println("\nSome names need a choice before the byline can be saved.")
	}
}

type creditFlags struct {
	title              string
	production         string
	authorChoices      []string
	affiliationChoices []string
	allowCreate        bool
	asJSON             bool
}

func newCreditCmd() *cobra.Command {
	var flags creditFlags

	cmd := &cobra.Command{
		Use:   "credit <byline>",
		Short: "Save a production with its byline",
		Long: `Resolves every name in the byline and saves the production. Ambiguous
names need a choice: pass the suggestion key (from "credits byline")
by position with --author-choice and --affiliation-choice. An empty
choice keeps the automatic selection.

Examples:
  credits credit "Gasman / Hooy-Program" --title "Pod"
  credits credit "Gasman" --title "Pod" --author-choice 42
  credits credit "Newbie / Newgroup" --title "Debut" \
      --author-choice new_person:Newbie --affiliation-choice new_group:Newgroup --allow-create`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredit(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.title, "title", "t", "", "Production title (required)")
	cmd.Flags().StringVarP(&flags.production, "production", "p", "", "Update this production instead of creating one")
	cmd.Flags().StringSliceVar(&flags.authorChoices, "author-choice", nil, "Suggestion key per author, in order")
	cmd.Flags().StringSliceVar(&flags.affiliationChoices, "affiliation-choice", nil, "Suggestion key per affiliation, in order")
	cmd.Flags().BoolVar(&flags.allowCreate, "allow-create", false, "Allow creating new people and groups")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print JSON")

	return cmd
}

func runCredit(cmd *cobra.Command, byline string, flags creditFlags) error {
	return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
		form, err := d.BylineHandler.HandleCredit(ctx, handlers.CreditRequest{
			ProductionID:       flags.production,
			Title:              flags.title,
			Byline:             byline,
			AuthorChoices:      flags.authorChoices,
			AffiliationChoices: flags.affiliationChoices,
			AllowCreate:        flags.allowCreate,
		})
		if err != nil {
			return err
		}

		if flags.asJSON {
			if err := printJSON(cmd.OutOrStdout(), form); err != nil {
				return err
			}
		} else if form.Saved {
			fmt.Printf("Saved %q (%s)\n", form.Production.Title, form.Production.ID)
			fmt.Printf("Byline: %s\n", form.Parsed.Text)
		} else {
			displayParsed(form.Parsed)
			fmt.Println("\nNot saved:")
			for _, e := range form.Errors {
				fmt.Printf("  %s: %s\n", e.Field, e.Message)
			}
		}

		if !form.Saved {
			return fmt.Errorf("credit form has %d errors", len(form.Errors))
		}
		return nil
	})
}

func newProductionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "production",
		Short: "Inspect saved productions",
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a production with its byline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				view, err := d.BylineHandler.HandleShow(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), view)
				}
				fmt.Printf("%s (%s)\n", view.Production.Title, view.Production.ID)
				fmt.Printf("Created: %s\n", view.Production.CreatedAt.Format("2006-01-02 15:04"))
				fmt.Printf("Byline:  %s\n", view.Byline.Text)
				return nil
			})
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	cmd.AddCommand(show)
	return cmd
}
