package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	// database/sql drivers for the sql provider and catalog import
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/conduit-lang/introspect/internal/cli/config"
	"github.com/conduit-lang/introspect/internal/logging"
	"github.com/conduit-lang/introspect/runtime/propstore"
	"github.com/conduit-lang/introspect/runtime/reflection"
	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
	"github.com/conduit-lang/introspect/runtime/reflection/phpsource"
	"github.com/conduit-lang/introspect/runtime/reflection/sqlcatalog"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	configFile string
	verbose    bool

	cfg      *config.Config
	logger   *zap.Logger
	provider *catalog.Provider
}

func newApp() *app {
	return &app{
		v:      config.New(),
		logger: zap.NewNop(),
	}
}

// bindFlags registers the persistent flags and binds them to config keys.
func (a *app) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default: ./reflect.yaml)")
	flags.String("format", "table", "Output format: table or json")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("catalog", "", "Catalog file for the file provider")
	flags.BoolVar(&a.verbose, "verbose", false, "Log debug output to stderr")

	_ = a.v.BindPFlag("output.format", flags.Lookup("format"))
	_ = a.v.BindPFlag("output.no_color", flags.Lookup("no-color"))
	_ = a.v.BindPFlag("provider.catalog", flags.Lookup("catalog"))
}

// load reads the configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Development: cfg.Log.Development,
		Output:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) noColor() bool {
	return a.cfg != nil && a.cfg.Output.NoColor
}

func (a *app) jsonOutput() bool {
	return a.cfg != nil && a.cfg.Output.Format == "json"
}

// reflectionOptions are the descriptor options implied by the config.
func (a *app) reflectionOptions() []reflection.Option {
	return []reflection.Option{
		reflection.WithLogger(a.logger),
		reflection.WithDiagnostics(reflection.NewZapSink(a.logger)),
		reflection.WithMaxHierarchyDepth(a.cfg.Reflection.MaxHierarchyDepth),
	}
}

// loadCatalog reads the catalog from the configured provider source.
func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	p := a.cfg.Provider
	switch p.Kind {
	case config.ProviderPHP:
		a.logger.Debug("extracting catalog from php sources", zap.Strings("sources", p.Sources))
		return phpsource.Load(ctx, p.Extension, p.Sources, phpsource.WithLogger(a.logger))
	case config.ProviderSQL:
		db, err := a.openDB(p.Driver, p.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		store, err := catalogStore(db, p.Driver)
		if err != nil {
			return nil, err
		}
		return store.Load(ctx)
	default:
		a.logger.Debug("loading catalog file", zap.String("path", p.Catalog))
		return catalog.Load(p.Catalog)
	}
}

// metadata returns the provider for this invocation, building it on first
// use.
func (a *app) metadata(ctx context.Context) (*catalog.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	c, err := a.loadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	var opts []catalog.ProviderOption
	if hints := a.cfg.Provider.ScalarTypeHints; hints != nil {
		opts = append(opts, catalog.WithScalarTypeHints(*hints))
	}
	p, err := catalog.NewProvider(c, opts...)
	if err != nil {
		return nil, err
	}
	a.provider = p
	return p, nil
}

type seededStore interface {
	reflection.PropertyStore
	catalog.Seeder
}

// propertyStore builds the configured store and seeds it from the catalog.
// The returned function releases it.
func (a *app) propertyStore(ctx context.Context, c *catalog.Catalog) (reflection.PropertyStore, func(), error) {
	var store seededStore
	release := func() {}
	switch a.cfg.Store.Kind {
	case config.StoreRedis:
		r := a.cfg.Store.Redis
		rs, err := propstore.NewRedisStore(ctx, propstore.RedisConfig{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		store = rs
		release = func() {
			if err := rs.Close(); err != nil {
				a.logger.Warn("failed to close redis store", zap.Error(err))
			}
		}
	default:
		store = propstore.NewMemoryStore()
	}

	if err := c.Seed(ctx, store); err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to seed property store: %w", err)
	}
	return store, release, nil
}

func (a *app) openDB(driver, dsn string) (*sql.DB, error) {
	name := driver
	if name == "postgres" {
		name = "pgx"
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func catalogStore(db *sql.DB, driver string) (*sqlcatalog.Store, error) {
	dialect, err := sqlcatalog.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}
	return sqlcatalog.New(db, dialect), nil
}
