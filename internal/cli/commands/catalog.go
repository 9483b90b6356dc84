package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/introspect/internal/cli/ui"
	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

// newCatalogCommand creates the catalog command group
func newCatalogCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect, export and import metadata catalogs",
		Long: `Inspect, export and import the metadata catalog behind the configured
provider. A catalog can be converted between JSON, YAML and TOML, or
imported into a SQL database for use with provider.kind: sql.`,
	}

	cmd.AddCommand(newCatalogClassesCommand(a))
	cmd.AddCommand(newCatalogExportCommand(a))
	cmd.AddCommand(newCatalogImportCommand(a))

	return cmd
}

func newCatalogClassesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List classes, parents before children",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := a.metadata(cmd.Context())
			if err != nil {
				return err
			}
			names, err := provider.ClassNames()
			if err != nil {
				return err
			}

			type classRow struct {
				Name   string `json:"name"`
				Parent string `json:"parent,omitempty"`
			}
			rows := make([]classRow, len(names))
			for i, name := range names {
				rows[i].Name = name
				class, _ := provider.ResolveClass(name)
				if parent, ok := provider.ParentClass(class); ok {
					rows[i].Parent = parent.Name
				}
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return writeJSON(out, rows)
			}
			table := ui.NewTable(out, a.noColor(), "Class", "Parent")
			for _, r := range rows {
				table.AddRow(r.Name, orDash(r.Parent))
			}
			table.Render()
			return nil
		},
	}
}

func newCatalogExportCommand(a *app) *cobra.Command {
	var (
		output string
		as     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as JSON, YAML or TOML",
		Long: `Write the configured provider's catalog to a file or stdout.

The format is taken from --as, or else from the extension of --output.
This turns PHP sources or a SQL catalog back into a catalog file.`,
		Example: `  # Snapshot PHP sources into a catalog file
  reflect catalog export --output catalog.yaml

  # Print as TOML
  reflect catalog export --as toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := catalog.Format(as)
			if format == "" {
				if output == "" {
					format = catalog.FormatYAML
				} else {
					f, err := catalog.FormatFromPath(output)
					if err != nil {
						return err
					}
					format = f
				}
			}

			provider, err := a.metadata(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" {
				return catalog.Encode(cmd.OutOrStdout(), provider.Catalog(), format)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := catalog.Encode(f, provider.Catalog(), format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			ui.Success(cmd.OutOrStdout(), "catalog written to "+output, a.noColor())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&as, "as", "", "Output format: json, yaml or toml")

	return cmd
}

func newCatalogImportCommand(a *app) *cobra.Command {
	var (
		driver string
		dsn    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store the catalog in a SQL database",
		Long: `Store the configured provider's catalog in a SQL database, replacing any
catalog saved there before. The schema is created when missing.

The target defaults to provider.driver and provider.dsn.`,
		Example: `  # Import a catalog file into SQLite
  reflect catalog import --catalog catalog.yaml --dsn file:reflect.db

  # Import PHP sources into PostgreSQL
  reflect catalog import --driver pgx --dsn postgres://localhost/reflect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver == "" {
				driver = a.cfg.Provider.Driver
			}
			if dsn == "" {
				dsn = a.cfg.Provider.DSN
			}
			if dsn == "" {
				return fmt.Errorf("no target database: set --dsn or provider.dsn")
			}

			ctx := cmd.Context()
			provider, err := a.metadata(ctx)
			if err != nil {
				return err
			}

			db, err := a.openDB(driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			store, err := catalogStore(db, driver)
			if err != nil {
				return err
			}
			if err := store.Migrate(ctx); err != nil {
				return err
			}
			if err := store.Save(ctx, provider.Catalog()); err != nil {
				return fmt.Errorf("failed to save catalog: %w", err)
			}

			c := provider.Catalog()
			a.logger.Info("catalog imported",
				zap.String("driver", driver),
				zap.Int("classes", len(c.Classes)),
				zap.Int("functions", len(c.Functions)),
			)
			ui.Success(cmd.OutOrStdout(),
				fmt.Sprintf("imported %d classes, %d functions, %d extensions", len(c.Classes), len(c.Functions), len(c.Extensions)),
				a.noColor())
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Database driver: sqlite3 or pgx")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Database connection string")

	return cmd
}
