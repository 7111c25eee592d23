package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS classes (
	name       TEXT PRIMARY KEY,
	base       TEXT,
	interfaces TEXT,
	flags      INTEGER NOT NULL,
	framework  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS methods (
	key          TEXT PRIMARY KEY,
	class        TEXT NOT NULL,
	name         TEXT NOT NULL,
	signature    TEXT NOT NULL,
	return_type  TEXT NOT NULL,
	flags        INTEGER NOT NULL,
	instructions INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fields (
	class     TEXT NOT NULL,
	name      TEXT NOT NULL,
	type      TEXT NOT NULL,
	is_static INTEGER NOT NULL,
	PRIMARY KEY (class, name, is_static)
);
CREATE TABLE IF NOT EXISTS calls (
	caller   TEXT NOT NULL,
	idx      INTEGER NOT NULL,
	callee   TEXT NOT NULL,
	kind     TEXT NOT NULL,
	resolved INTEGER NOT NULL,
	PRIMARY KEY (caller, idx)
);
CREATE INDEX IF NOT EXISTS calls_callee ON calls (callee);
`

// SQLiteExporter writes a graph into a SQLite database file.
type SQLiteExporter struct {
	db *sql.DB
}

// NewSQLiteExporter opens (or creates) the database at path.
func NewSQLiteExporter(path string) (*SQLiteExporter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &SQLiteExporter{db: db}, nil
}

// DB exposes the connection for queries over the exported tables.
func (e *SQLiteExporter) DB() *sql.DB { return e.db }

func (e *SQLiteExporter) Close(context.Context) error { return e.db.Close() }

// Export replaces the table contents with g in one transaction.
func (e *SQLiteExporter) Export(ctx context.Context, g *Graph) (err error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, t := range []string{"classes", "methods", "fields", "calls"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("clearing %s: %w", t, err)
		}
	}

	err = insert(ctx, tx, "INSERT INTO classes VALUES (?, ?, ?, ?, ?)", len(g.Classes), func(i int) []any {
		c := g.Classes[i]
		return []any{c.Name, c.Base, strings.Join(c.Interfaces, ","), c.Flags, c.Framework}
	})
	if err != nil {
		return fmt.Errorf("classes: %w", err)
	}
	err = insert(ctx, tx, "INSERT OR REPLACE INTO methods VALUES (?, ?, ?, ?, ?, ?, ?)", len(g.Methods), func(i int) []any {
		m := g.Methods[i]
		return []any{m.Key, m.Class, m.Name, m.Signature, m.Return, m.Flags, m.Instructions}
	})
	if err != nil {
		return fmt.Errorf("methods: %w", err)
	}
	err = insert(ctx, tx, "INSERT INTO fields VALUES (?, ?, ?, ?)", len(g.Fields), func(i int) []any {
		f := g.Fields[i]
		return []any{f.Class, f.Name, f.Type, f.Static}
	})
	if err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	err = insert(ctx, tx, "INSERT INTO calls VALUES (?, ?, ?, ?, ?)", len(g.Calls), func(i int) []any {
		c := g.Calls[i]
		return []any{c.Caller, c.Index, c.Callee, c.Kind, c.Resolved}
	})
	if err != nil {
		return fmt.Errorf("calls: %w", err)
	}
	return tx.Commit()
}

func insert(ctx context.Context, tx *sql.Tx, query string, n int, row func(int) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return err
		}
	}
	return nil
}
