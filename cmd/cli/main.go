package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/config"
	"github.com/pgocasting/ipatrollersys-sub002/internal/container"
	"github.com/pgocasting/ipatrollersys-sub002/internal/datetime"
	"github.com/pgocasting/ipatrollersys-sub002/internal/dedup"
	"github.com/pgocasting/ipatrollersys-sub002/internal/importer"
	"github.com/pgocasting/ipatrollersys-sub002/internal/migration"
	"github.com/pgocasting/ipatrollersys-sub002/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "ipatroller-cli",
		Short: "Reconcile provincial action reports from the command line",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional config file (yaml, json or toml)")

	rootCmd.AddCommand(
		newReloadCmd(),
		newListCmd(),
		newDuplicatesCmd(),
		newImportCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliActor() ports.Actor {
	name := os.Getenv("USER")
	if name == "" {
		name = "cli"
	}
	return ports.Actor{ID: "cli", Name: name, Role: "admin"}
}

// withContainer loads config, opens the store and reloads the working set.
func withContainer(ctx context.Context, fn func(*container.Container) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	c, err := container.New(cfg, nil)
	if err != nil {
		return err
	}
	if err := c.Init(ctx); err != nil {
		return err
	}
	defer c.Close(context.Background())

	sum, err := c.Service.ReloadBy(ctx, cliActor())
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	if len(sum.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "warning: unreadable locations: %s\n", strings.Join(sum.Failed, ", "))
	}
	return fn(c)
}

func newListCmd() *cobra.Command {
	var month string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the reconciled working set",
		Long: `Load every candidate location, normalize and filter the entries and
print the resulting records.

Example: ipatroller-cli list --month March`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *container.Container) error {
				records := c.Service.Records()
				if month != "" {
					m := datetime.DetectMonth(month, time.Now())
					if m == datetime.MonthUndetermined {
						return fmt.Errorf("unrecognised month %q", month)
					}
					records = c.Service.FilterByMonth(m)
				}
				c.Service.LogAccess(cliActor(), len(records))
				if asJSON {
					return printJSON(records)
				}
				printRecords(records)
				sum := c.Service.Summary()
				fmt.Printf("\n%d records, %d rejected\n", len(records), sum.Rejected)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Only records in this month")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Load every candidate location and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *container.Container) error {
				return printJSON(c.Service.Summary())
			})
		},
	}
}

func newDuplicatesCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "dedup",
		Aliases: []string{"duplicates"},
		Short:   "Show duplicate groups and optionally remove the extra copies",
		Long:    `Group the working set by department, municipality, district, what,
where and when. The first-ingested member of each group is kept.

Without --yes the plan is printed and nothing is deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(c *container.Container) error {
				actor := cliActor()
				groups := c.Service.PlanDuplicates(actor)
				if len(groups) == 0 {
					fmt.Println("No duplicates found.")
					return nil
				}
				for _, g := range groups {
					fmt.Printf("keep %s (%s/%s): %s\n", g.Keep.ID, g.Keep.Provenance.SourceCollection, g.Keep.Provenance.SourceDocument, g.Keep.What)
					for _, r := range g.Remove {
						fmt.Printf("  remove %s (%s/%s)\n", r.ID, r.Provenance.SourceCollection, r.Provenance.SourceDocument)
					}
				}
				fmt.Printf("\n%d duplicate(s) in %d group(s)\n", dedup.Removals(groups), len(groups))
				if !yes {
					fmt.Println("Re-run with --yes to delete them.")
					return nil
				}

				out, err := c.Service.RemoveDuplicates(cmd.Context(), dedup.Confirmed, actor)
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %d, failed %d\n", out.Deleted, out.Failed)
				for _, e := range out.Errors {
					fmt.Fprintf(os.Stderr, "  %v\n", e)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Delete without further confirmation")
	return cmd
}

func newImportCmd() *cobra.Command {
	var department string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a spreadsheet of action reports",
		Long: `Import an .xlsx or .csv file. Rows already present in the working set,
or repeated within the file, are skipped.

Example: ipatroller-cli import march.xlsx --department Agriculture`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			return withContainer(cmd.Context(), func(c *container.Container) error {
				out, err := c.Service.Import(cmd.Context(), importer.Request{
					Data:       data,
					Filename:   filepath.Base(path),
					Department: department,
					Actor:      cliActor(),
				})
				if err != nil {
					return err
				}
				fmt.Println(out.Message)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&department, "department", "", "Department for imported rows (PNP, Agriculture, PG-ENRO)")
	_ = cmd.MarkFlagRequired("department")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres documents schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Store.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			db, err := sqlx.ConnectContext(cmd.Context(), "postgres", cfg.Store.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			runner := migration.NewRunner()
			if err := runner.Run(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Printf("Schema at version %s\n", runner.Version())
			return nil
		},
	}
}

func printRecords(records []report.CanonicalRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEPARTMENT\tMUNICIPALITY\tWHEN\tWHAT\tACTION")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Department, r.Municipality, r.When.String(), r.What, r.ActionTaken)
	}
	w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
