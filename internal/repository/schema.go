package repository

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

//go:embed schema/*.sql
var schemaFS embed.FS

type SchemaRepository interface {
	// EnsureSchema creates the six job tables if they do not exist.
	EnsureSchema(ctx context.Context) error
	// ListTables returns the user tables present in the store, sorted by name.
	ListTables(ctx context.Context) ([]string, error)
	// CountRows returns the number of rows in table.
	CountRows(ctx context.Context, table string) (int64, error)
}

type schemaRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewSchemaRepository(drv *entsql.Driver, logger *slog.Logger) SchemaRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &schemaRepository{
		drv:    drv,
		logger: logger,
	}
}

// Statements returns the DDL statements for the given ent dialect name.
func Statements(dialectName string) ([]string, error) {
	var file string
	switch dialectName {
	case dialect.SQLite:
		file = "schema/sqlite.sql"
	case dialect.Postgres:
		file = "schema/postgres.sql"
	default:
		return nil, fmt.Errorf("no schema for dialect %q", dialectName)
	}
	b, err := schemaFS.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, s := range strings.Split(string(b), ";") {
		if s = strings.TrimSpace(stripComments(s)); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

func stripComments(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

func (r *schemaRepository) EnsureSchema(ctx context.Context) error {
	stmts, err := Statements(r.drv.Dialect())
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := r.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			r.logger.Error("failed to create table", "statement", firstLine(stmt), "error", err)
			return fmt.Errorf("create schema: %w", err)
		}
	}
	r.logger.Debug("schema ensured", "statements", len(stmts))
	return nil
}

func (r *schemaRepository) ListTables(ctx context.Context) ([]string, error) {
	b := entsql.Dialect(r.drv.Dialect())
	var sel *entsql.Selector
	switch r.drv.Dialect() {
	case dialect.Postgres:
		t := b.Table("tables").Schema("information_schema")
		sel = b.Select(entsql.As(t.C("table_name"), "name")).
			From(t).
			Where(entsql.EQ(t.C("table_schema"), "public"))
	default:
		t := b.Table("sqlite_master")
		sel = b.Select(t.C("name")).
			From(t).
			Where(entsql.EQ(t.C("type"), "table"))
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to list tables", "error", err)
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if strings.HasPrefix(name, "sqlite_") {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (r *schemaRepository) CountRows(ctx context.Context, table string) (int64, error) {
	b := entsql.Dialect(r.drv.Dialect())
	query, args := b.Select(entsql.Count("*")).From(b.Table(table)).Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to count rows", "table", table, "error", err)
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt64(rows)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
