// Package duckcheck checks SQL text against DuckDB's own parser. Statements
// are prepared, never executed, on a private in-memory database, so catalog
// and binder errors about legacy tables that do not exist there are ignored
// and only syntax errors are reported. It is the second opinion for
// round-trip validation when the target dialect is duckdb.
package duckcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/marcboeker/go-duckdb"
)

// Checker validates statements with DuckDB. It is safe for concurrent use.
type Checker struct {
	db *sql.DB
}

// Open starts an in-memory DuckDB database for checking.
func Open() (*Checker, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return &Checker{db: db}, nil
}

// Close releases the database.
func (c *Checker) Close() error {
	return c.db.Close()
}

// Check prepares sql and returns an error when DuckDB cannot parse it.
func (c *Checker) Check(sql string) error {
	stmt, err := c.db.PrepareContext(context.Background(), sql)
	if err != nil {
		if IsSyntaxError(err) {
			return fmt.Errorf("duckdb: %w", err)
		}
		return nil
	}
	return stmt.Close()
}

// IsSyntaxError reports whether err is a DuckDB parser error.
func IsSyntaxError(err error) bool {
	var dErr *duckdb.Error
	return errors.As(err, &dErr) && dErr.Type == duckdb.ErrorTypeParser
}
