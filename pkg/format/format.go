// Package format renders parsed statements back to SQL text in a target
// dialect. Output is deterministic: the same tree and dialect always produce
// the same text.
package format

import (
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
)

// Format renders a statement using the quoting, cast and auto-increment
// spelling of d.
func Format(stmt core.Stmt, d *dialect.Dialect) string {
	p := newPrinter(d)
	switch s := stmt.(type) {
	case *core.SelectStmt:
		p.formatSelectStmt(s)
	case *core.CreateTableStmt:
		p.formatCreateTable(s)
	case *core.CreateViewStmt:
		p.formatCreateView(s)
	}
	return p.String()
}

// Expr renders a single expression on one line.
func Expr(e core.Expr, d *dialect.Dialect) string {
	p := newPrinter(d)
	p.flat = true
	p.formatExpr(e)
	return p.output.String()
}

// Type renders a type reference.
func Type(t *core.TypeRef) string {
	p := newPrinter(nil)
	p.formatTypeRef(t)
	return p.output.String()
}
