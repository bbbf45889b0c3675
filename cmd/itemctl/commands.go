package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	itemMigrations "github.com/ghuser/itemregistry/migrations/item"
	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/logger"
	"github.com/ghuser/itemregistry/pkg/migrator"
	appsvcs "github.com/ghuser/itemregistry/services/item/application/services"
	"github.com/ghuser/itemregistry/services/item/domain/models"
)

// env is an opened database plus the item service built on it.
type env struct {
	db    *database.Database
	svc   *appsvcs.ItemService
	close func()
}

type cli struct {
	out     io.Writer
	open    func(ctx context.Context) (*env, error)
	driver  string
	dsn     string
	jsonOut bool
	verbose bool
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "itemctl",
		Short: "Manage items in the item registry",
		Long: `itemctl creates, reads, updates and deletes items directly against the
configured database. A name must be unique within its group.

Examples:
  itemctl migrate
  itemctl create "Widget" --group Primary
  itemctl list --page 2 --page-size 20
  itemctl patch 123e4567-e89b-12d3-a456-426614174000 --group Secondary`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)

	root.PersistentFlags().StringVar(&c.driver, "driver", "", "Database driver: postgres|sqlite (default from DATABASE_DRIVER)")
	root.PersistentFlags().StringVar(&c.dsn, "dsn", "", "Database URL or SQLite path (default from DEFINITION_DATABASE_URL)")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Print results as JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(
		c.migrateCmd(),
		c.createCmd(),
		c.getCmd(),
		c.listCmd(),
		c.updateCmd(),
		c.patchCmd(),
		c.deleteCmd(),
	)
	return root
}

// run opens the environment for the duration of fn.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(ctx, e)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, e *env) error {
				files, err := itemMigrations.FS(e.db.Driver())
				if err != nil {
					return err
				}
				var log logger.Logger
				if c.verbose {
					log = logger.NewWithWriter(cmd.ErrOrStderr(), "info", "text")
				}
				if err := migrator.RunMigrations(ctx, e.db, files, log); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(c.out, "Migrations applied (%s)\n", e.db.Driver())
				return nil
			})
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, e *env) error {
				item, err := e.svc.Create(ctx, args[0], group)
				if err != nil {
					return err
				}
				return c.printItem("Created", item)
			})
		},
	}
	groupFlag(cmd, &group, "Group")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, e *env) error {
				item, err := e.svc.GetByID(ctx, id)
				if err != nil {
					return err
				}
				return c.printItem("", item)
			})
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be a positive integer")
			}
			return c.run(cmd, func(ctx context.Context, e *env) error {
				result, err := e.svc.List(ctx, page, pageSize)
				if err != nil {
					return err
				}
				return c.printPage(result)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "1-based page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Items per page (default from DEFAULT_PAGE_SIZE)")
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var name, group string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an item's name and group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, e *env) error {
				item, err := e.svc.Update(ctx, id, name, group)
				if err != nil {
					return err
				}
				return c.printItem("Updated", item)
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	groupFlag(cmd, &group, "New group")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func (c *cli) patchCmd() *cobra.Command {
	var name, group string
	cmd := &cobra.Command{
		Use:   "patch <id>",
		Short: "Change an item's name or group",
		Long:  "Only the flags given are changed; the rest keep their stored value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var in appsvcs.ItemPatchInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("group") {
				in.Group = &group
			}
			return c.run(cmd, func(ctx context.Context, e *env) error {
				item, err := e.svc.Patch(ctx, id, in)
				if err != nil {
					return err
				}
				return c.printItem("Updated", item)
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	groupFlag(cmd, &group, "New group")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, e *env) error {
				if err := e.svc.Delete(ctx, id); err != nil {
					return err
				}
				color.New(color.FgGreen).Fprintf(c.out, "Deleted %s\n", id)
				return nil
			})
		},
	}
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

type itemOut struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOut(item *models.Item) itemOut {
	return itemOut{
		ID:        item.ID,
		Name:      item.Name.String(),
		Group:     item.Group.String(),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printItem(verb string, item *models.Item) error {
	if c.jsonOut {
		return c.printJSON(toOut(item))
	}
	if verb != "" {
		color.New(color.FgGreen).Fprintf(c.out, "%s item %s\n", verb, item.ID)
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  ID:\t%s\n", item.ID)
	fmt.Fprintf(w, "  Name:\t%s\n", item.Name)
	fmt.Fprintf(w, "  Group:\t%s\n", item.Group.Label())
	fmt.Fprintf(w, "  Created:\t%s\n", item.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  Updated:\t%s\n", item.UpdatedAt.Format(time.RFC3339))
	return w.Flush()
}

func (c *cli) printPage(p *appsvcs.ItemPage) error {
	if c.jsonOut {
		results := make([]itemOut, len(p.Items))
		for i, it := range p.Items {
			results[i] = toOut(it)
		}
		return c.printJSON(map[string]any{
			"count":     p.Count,
			"page":      p.Page,
			"page_size": p.PageSize,
			"results":   results,
		})
	}

	if len(p.Items) == 0 {
		fmt.Fprintf(c.out, "No items on page %d (%d total)\n", p.Page, p.Count)
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	color.New(color.FgCyan).Fprintln(w, "ID\tNAME\tGROUP\tCREATED")
	for _, it := range p.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Group, it.CreatedAt.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Page %d, %d of %d items\n", p.Page, len(p.Items), p.Count)
	return nil
}

// groupFlag registers --group with the valid choices in its help and shell completion.
func groupFlag(cmd *cobra.Command, dst *string, usage string) {
	cmd.Flags().StringVarP(dst, "group", "g", "", usage+": "+models.GroupChoices("|"))
	_ = cmd.RegisterFlagCompletionFunc("group", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		choices := make([]string, len(models.Groups))
		for i, g := range models.Groups {
			choices[i] = g.String()
		}
		return choices, cobra.ShellCompDirectiveNoFileComp
	})
}
