package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/scenecredits/internal/domain/entities"
	"github.com/ersonp/scenecredits/internal/domain/services"
)

func newReleaserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "releaser",
		Aliases: []string{"releasers"},
		Short:   "Manage people and groups",
		Long: `Manage releasers: the people and groups that can be credited.

Every releaser has a primary nick equal to its name. Further nicks and
alternate spellings (aliases) make it findable under other names.

Examples:
  credits releaser add "Gasman" --country gb
  credits releaser add "Hooy-Program" --group
  credits releaser member 1 2
  credits releaser nick 1 "Matt Westcott" --abbr MW
  credits releaser alias 3 "Gas Man"
  credits releaser show 1`,
	}

	cmd.AddCommand(
		newReleaserAddCmd(),
		newReleaserNickCmd(),
		newReleaserAliasCmd(),
		newReleaserRenameCmd(),
		newReleaserMemberCmd(),
		newReleaserShowCmd(),
		newReleaserListCmd(),
		newReleaserDeleteCmd(),
	)

	return cmd
}

func newReleaserAddCmd() *cobra.Command {
	var (
		isGroup bool
		country string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a person or group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := entities.KindPerson
			if isGroup {
				kind = entities.KindGroup
			}
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				detail, err := d.ReleaserHandler.HandleAdd(ctx, args[0], kind, country)
				if err != nil {
					return fmt.Errorf("adding releaser: %w", err)
				}
				fmt.Printf("Added %s %q (id %d)\n", detail.Releaser.Kind(), detail.Releaser.Name, detail.Releaser.ID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&isGroup, "group", "g", false, "Add a group instead of a person")
	cmd.Flags().StringVarP(&country, "country", "c", "", "Two-letter country code")

	return cmd
}

func newReleaserNickCmd() *cobra.Command {
	var (
		abbreviation   string
		differentiator string
		variants       []string
	)

	cmd := &cobra.Command{
		Use:   "nick <releaser-id> <name>",
		Short: "Add a further nick to a releaser",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				nick, err := d.ReleaserHandler.HandleAddNick(ctx, id, args[1], abbreviation, differentiator, variants...)
				if err != nil {
					return fmt.Errorf("adding nick: %w", err)
				}
				fmt.Printf("Added nick %q (id %d)\n", nick.Name, nick.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&abbreviation, "abbr", "", "Abbreviation, indexed as a variant")
	cmd.Flags().StringVar(&differentiator, "differentiator", "", "Hint that tells this nick apart from namesakes")
	cmd.Flags().StringSliceVar(&variants, "variant", nil, "Alternate spelling (repeatable)")

	return cmd
}

func newReleaserAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alias <nick-id> <spelling>",
		Short: "Index an alternate spelling of a nick",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				v, err := d.ReleaserHandler.HandleAddAlias(ctx, id, args[1])
				if err != nil {
					return fmt.Errorf("adding alias: %w", err)
				}
				fmt.Printf("Added alias %q to nick %d\n", v.Name, v.NickID)
				return nil
			})
		},
	}
}

func newReleaserRenameCmd() *cobra.Command {
	var nick bool

	cmd := &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a releaser, or a single nick with --nick",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				if nick {
					err = d.ReleaserHandler.HandleRenameNick(ctx, id, args[1])
				} else {
					err = d.ReleaserHandler.HandleRename(ctx, id, args[1])
				}
				if err != nil {
					return fmt.Errorf("renaming: %w", err)
				}
				fmt.Printf("Renamed to %q\n", strings.TrimSpace(args[1]))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&nick, "nick", false, "Treat <id> as a nick id")

	return cmd
}

func newReleaserMemberCmd() *cobra.Command {
	var former bool

	cmd := &cobra.Command{
		Use:   "member <member-id> <group-id>",
		Short: "Record that a releaser is a member of a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := parseID(args[0])
			if err != nil {
				return err
			}
			groupID, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				if _, err := d.ReleaserHandler.HandleAddMembership(ctx, memberID, groupID, !former); err != nil {
					return fmt.Errorf("adding membership: %w", err)
				}
				fmt.Printf("Releaser %d is now a member of group %d\n", memberID, groupID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&former, "former", false, "Record a past membership")

	return cmd
}

func newReleaserShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a releaser with its nicks and groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				detail, err := d.ReleaserHandler.HandleShow(ctx, id)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), detail)
				}
				displayReleaser(detail)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func newReleaserListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List releasers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				result, err := d.ReleaserHandler.HandleList(ctx, limit, offset)
				if err != nil {
					return fmt.Errorf("listing releasers: %w", err)
				}

				if len(result.Releasers) == 0 {
					fmt.Println("No releasers found.")
					return nil
				}

				fmt.Printf("Releasers (%d total):\n\n", result.Total)
				for _, r := range result.Releasers {
					fmt.Printf("  %6d  %-6s  %s\n", r.ID, r.Kind(), r.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of releasers")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many releasers")

	return cmd
}

func newReleaserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a releaser with its nicks and memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(ctx context.Context, d *Deps) error {
				if err := d.ReleaserHandler.HandleDelete(ctx, id); err != nil {
					return err
				}
				fmt.Printf("Deleted releaser %d\n", id)
				return nil
			})
		},
	}
}

func displayReleaser(detail *services.ReleaserDetail) {
	r := detail.Releaser
	fmt.Printf("%s (id %d, %s", r.Name, r.ID, r.Kind())
	if r.CountryCode != "" {
		fmt.Printf(", %s", strings.ToUpper(r.CountryCode))
	}
	fmt.Println(")")

	if len(detail.Groups) > 0 {
		names := make([]string, 0, len(detail.Groups))
		for _, g := range detail.Groups {
			names = append(names, g.Name)
		}
		fmt.Printf("  Groups: %s\n", strings.Join(names, ", "))
	}

	fmt.Println("  Nicks:")
	for _, n := range detail.Nicks {
		label := n.Name
		if n.Differentiator != "" {
			label += " (" + n.Differentiator + ")"
		}
		fmt.Printf("    %6d  %s\n", n.ID, label)
		for _, v := range detail.Variants[n.ID] {
			if v.Name != n.Name {
				fmt.Printf("            aka %s\n", v.Name)
			}
		}
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
