package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/scenecredits/internal/domain/services"
)

type searchFlags struct {
	kind   string
	exact  bool
	limit  int
	asJSON bool
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Find nicks by name or name prefix",
		Long: `Searches the nick variant index. Without --exact the query matches any
variant starting with it, ignoring case and accents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.kind, "kind", "k", "any", "Restrict to kind (any, person, group)")
	cmd.Flags().BoolVar(&flags.exact, "exact", false, "Match whole names only")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultSearchLimit, "Maximum number of matches")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, flags searchFlags) error {
	kind, err := parseKindFilter(flags.kind)
	if err != nil {
		return err
	}

	return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
		result, err := d.LookupHandler.HandleSearch(ctx, query, kind, flags.exact, flags.limit)
		if err != nil {
			return err
		}

		if flags.asJSON {
			return printJSON(cmd.OutOrStdout(), result)
		}

		if len(result.Matches) == 0 {
			fmt.Println("No matches found.")
			return nil
		}

		fmt.Printf("Matches for %q:\n\n", query)
		for _, m := range result.Matches {
			name := m.Variant.Name
			if m.Variant.Name != m.Nick.Name {
				name += " (" + m.Nick.Name + ")"
			}
			if m.Nick.Name != m.Releaser.Name {
				name += ", alias of " + m.Releaser.Name
			}
			fmt.Printf("  %6d  %-6s  %4d  %s\n", m.Nick.ID, m.Releaser.Kind(), m.Score, name)
		}
		return nil
	})
}

func newCompleteCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "complete <partial>",
		Short: "Autocomplete a partial name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseKindFilter(kind)
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				result, err := d.LookupHandler.HandleComplete(ctx, args[0], filter)
				if err != nil {
					return err
				}
				if result.Suffix == "" {
					fmt.Println(result.Partial)
					return nil
				}
				fmt.Printf("%s[%s]\n", result.Partial, result.Suffix)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "any", "Restrict to kind (any, person, group)")

	return cmd
}

type resolveFlags struct {
	kind   string
	groups []string
	asJSON bool
}

func newResolveCmd() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show the suggestions offered for a name",
		Long: `Resolves one name the way a byline field does: ranked suggestions for
existing nicks, followed by options to create a new person or group.

Examples:
  credits resolve Gasman
  credits resolve Gasman --group "Raww Arse"
  credits resolve 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.kind, "kind", "k", "any", "Restrict to kind (any, person, group)")
	cmd.Flags().StringSliceVarP(&flags.groups, "group", "g", nil, "Group names that rank their members higher (repeatable)")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print JSON")

	return cmd
}

func runResolve(cmd *cobra.Command, term string, flags resolveFlags) error {
	kind, err := parseKindFilter(flags.kind)
	if err != nil {
		return err
	}

	return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
		nr, err := d.LookupHandler.HandleResolve(ctx, term, kind, flags.groups)
		if err != nil {
			return err
		}
		if flags.asJSON {
			return printJSON(cmd.OutOrStdout(), nr)
		}
		displayResolver(cmd.OutOrStdout(), nr, "")
		return nil
	})
}

// displayResolver prints suggestions with the selected one marked.
func displayResolver(w io.Writer, nr *services.NickResolver, indent string) {
	fmt.Fprintf(w, "%s%q\n", indent, nr.SearchTerm)
	for _, s := range nr.Suggestions {
		marker := " "
		if nr.Selection.Equal(s.Selection) {
			marker = "*"
		}
		fmt.Fprintf(w, "%s  %s %-14s %s\n", indent, marker, s.Key, s.FullLabel())
	}
	if !nr.HasSelection() {
		fmt.Fprintf(w, "%s  (no selection, choose a key)\n", indent)
	}
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
