// Package sqlcatalog persists metadata catalogs in a SQL database.
//
// The schema works on SQLite (mattn/go-sqlite3) and PostgreSQL
// (pgx/v5/stdlib). Parameter lists, property records and extensions are
// stored as JSON documents; ordering columns keep declaration order.
package sqlcatalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

// ErrNotMigrated is returned by Load when the schema does not exist.
var ErrNotMigrated = errors.New("catalog schema not migrated")

// ErrEmpty is returned by Load when no catalog has been saved.
var ErrEmpty = errors.New("no catalog saved")

// Dialect selects placeholder syntax.
type Dialect int

const (
	// SQLite uses "?" placeholders.
	SQLite Dialect = iota
	// Postgres uses "$n" placeholders.
	Postgres
)

// DialectForDriver maps a database/sql driver name to a dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	}
	return 0, fmt.Errorf("unsupported catalog driver %q", driver)
}

// Store reads and writes catalogs.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New creates a store on db.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalog_meta (
	id INTEGER PRIMARY KEY,
	version TEXT NOT NULL,
	scalar_type_hints BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE TABLE IF NOT EXISTS catalog_functions (
	position INTEGER NOT NULL,
	name TEXT PRIMARY KEY,
	return_type TEXT NOT NULL DEFAULT '',
	params TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS catalog_closures (
	position INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	params TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS catalog_classes (
	position INTEGER NOT NULL,
	name TEXT PRIMARY KEY,
	parent TEXT NOT NULL DEFAULT '',
	doc TEXT NOT NULL DEFAULT '',
	methods TEXT NOT NULL,
	properties TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS catalog_extensions (
	position INTEGER NOT NULL,
	name TEXT PRIMARY KEY,
	payload TEXT NOT NULL
)`,
}

var tables = []string{
	"catalog_meta",
	"catalog_functions",
	"catalog_closures",
	"catalog_classes",
	"catalog_extensions",
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate catalog schema: %w", err)
		}
	}
	return nil
}

// Save replaces the stored catalog with c in one transaction.
func (s *Store) Save(ctx context.Context, c *catalog.Catalog) (err error) {
	if err := c.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range tables {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, convertError(err))
		}
	}

	if _, err = tx.ExecContext(ctx,
		s.rebind(`INSERT INTO catalog_meta (id, version, scalar_type_hints) VALUES (1, ?, ?)`),
		c.Version, c.ScalarTypeHints); err != nil {
		return fmt.Errorf("failed to save catalog meta: %w", err)
	}

	for i, fn := range c.Functions {
		params, err := encode(fn.Params)
		if err != nil {
			return fmt.Errorf("function %s: %w", fn.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO catalog_functions (position, name, return_type, params) VALUES (?, ?, ?, ?)`),
			i, fn.Name, fn.ReturnType, params); err != nil {
			return fmt.Errorf("failed to save function %s: %w", fn.Name, err)
		}
	}

	for i, cl := range c.Closures {
		params, err := encode(cl.Params)
		if err != nil {
			return fmt.Errorf("closure %s: %w", cl.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO catalog_closures (position, id, name, params) VALUES (?, ?, ?, ?)`),
			i, cl.ID, cl.Name, params); err != nil {
			return fmt.Errorf("failed to save closure %s: %w", cl.ID, err)
		}
	}

	for i, cls := range c.Classes {
		methods, err := encode(cls.Methods)
		if err != nil {
			return fmt.Errorf("class %s: %w", cls.Name, err)
		}
		properties, err := encode(cls.Properties)
		if err != nil {
			return fmt.Errorf("class %s: %w", cls.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO catalog_classes (position, name, parent, doc, methods, properties) VALUES (?, ?, ?, ?, ?, ?)`),
			i, cls.Name, cls.Parent, cls.Doc, methods, properties); err != nil {
			return fmt.Errorf("failed to save class %s: %w", cls.Name, err)
		}
	}

	for i, ext := range c.Extensions {
		payload, err := encode(ext)
		if err != nil {
			return fmt.Errorf("extension %s: %w", ext.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO catalog_extensions (position, name, payload) VALUES (?, ?, ?)`),
			i, ext.Name, payload); err != nil {
			return fmt.Errorf("failed to save extension %s: %w", ext.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// Load reads the stored catalog and validates it.
func (s *Store) Load(ctx context.Context) (*catalog.Catalog, error) {
	c := &catalog.Catalog{}

	err := s.db.QueryRowContext(ctx, `SELECT version, scalar_type_hints FROM catalog_meta WHERE id = 1`).
		Scan(&c.Version, &c.ScalarTypeHints)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog meta: %w", convertError(err))
	}

	if err := s.each(ctx, `SELECT name, return_type, params FROM catalog_functions ORDER BY position`,
		func(rows *sql.Rows) error {
			var fn catalog.Function
			var params string
			if err := rows.Scan(&fn.Name, &fn.ReturnType, &params); err != nil {
				return err
			}
			if err := decode(params, &fn.Params); err != nil {
				return fmt.Errorf("function %s: %w", fn.Name, err)
			}
			c.Functions = append(c.Functions, fn)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := s.each(ctx, `SELECT id, name, params FROM catalog_closures ORDER BY position`,
		func(rows *sql.Rows) error {
			var cl catalog.Closure
			var params string
			if err := rows.Scan(&cl.ID, &cl.Name, &params); err != nil {
				return err
			}
			if err := decode(params, &cl.Params); err != nil {
				return fmt.Errorf("closure %s: %w", cl.ID, err)
			}
			c.Closures = append(c.Closures, cl)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := s.each(ctx, `SELECT name, parent, doc, methods, properties FROM catalog_classes ORDER BY position`,
		func(rows *sql.Rows) error {
			var cls catalog.Class
			var methods, properties string
			if err := rows.Scan(&cls.Name, &cls.Parent, &cls.Doc, &methods, &properties); err != nil {
				return err
			}
			if err := decode(methods, &cls.Methods); err != nil {
				return fmt.Errorf("class %s: %w", cls.Name, err)
			}
			if err := decode(properties, &cls.Properties); err != nil {
				return fmt.Errorf("class %s: %w", cls.Name, err)
			}
			c.Classes = append(c.Classes, cls)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := s.each(ctx, `SELECT payload FROM catalog_extensions ORDER BY position`,
		func(rows *sql.Rows) error {
			var payload string
			if err := rows.Scan(&payload); err != nil {
				return err
			}
			var ext catalog.Extension
			if err := decode(payload, &ext); err != nil {
				return fmt.Errorf("extension: %w", err)
			}
			c.Extensions = append(c.Extensions, ext)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) each(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query catalog: %w", convertError(err))
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan catalog row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating catalog rows: %w", err)
	}
	return nil
}

// rebind rewrites "?" placeholders for the store's dialect.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func encode(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON payload: %w", err)
	}
	return string(data), nil
}

func decode(data string, v interface{}) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("corrupt JSON payload: %w", err)
	}
	return nil
}

// convertError maps a missing table to ErrNotMigrated.
func convertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" { // undefined_table
		return fmt.Errorf("%w: %s", ErrNotMigrated, pgErr.Message)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && strings.Contains(liteErr.Error(), "no such table") {
		return fmt.Errorf("%w: %s", ErrNotMigrated, liteErr.Error())
	}
	return err
}
