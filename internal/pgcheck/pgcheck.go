// Package pgcheck checks SQL text against the PostgreSQL server grammar using
// libpg_query. It is the second opinion for round-trip validation when the
// target dialect is postgres.
package pgcheck

import (
	"errors"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ErrNotSingleStatement is returned when the text holds zero or several
// statements.
var ErrNotSingleStatement = errors.New("expected exactly one statement")

// Checker validates statements with the PostgreSQL parser. The zero value is
// ready to use.
type Checker struct{}

// New returns a Checker.
func New() *Checker { return &Checker{} }

// Check parses sql and returns an error describing why PostgreSQL would
// reject it.
func (c *Checker) Check(sql string) error {
	_, err := c.Kind(sql)
	return err
}

// Kind parses sql and returns the PostgreSQL node name of its single
// statement, such as "SelectStmt" or "CreateStmt".
func (c *Checker) Kind(sql string) (string, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return "", fmt.Errorf("pg_query: %w", err)
	}
	if len(result.Stmts) != 1 {
		return "", fmt.Errorf("pg_query: %w, got %d", ErrNotSingleStatement, len(result.Stmts))
	}

	switch result.Stmts[0].Stmt.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return "SelectStmt", nil
	case *pg_query.Node_CreateStmt:
		return "CreateStmt", nil
	case *pg_query.Node_ViewStmt:
		return "ViewStmt", nil
	case *pg_query.Node_CreateTableAsStmt:
		return "CreateTableAsStmt", nil
	default:
		return fmt.Sprintf("%T", result.Stmts[0].Stmt.Node), nil
	}
}
