package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalk_CollectsTablesAndColumns(t *testing.T) {
	stmt := &SelectStmt{
		Body: &SelectBody{Left: &SelectCore{
			Columns: []SelectItem{{Expr: &ColumnRef{Column: "a"}}},
			From: &FromClause{
				Source: &TableName{Name: "t1"},
				Joins: []*Join{{
					Type:      JoinLeft,
					Right:     &DerivedTable{Select: &SelectStmt{Body: &SelectBody{Left: &SelectCore{From: &FromClause{Source: &TableName{Name: "t2"}}}}}},
					Condition: &BinaryExpr{Left: &ColumnRef{Column: "b"}, Right: &ColumnRef{Column: "c"}},
				}},
			},
			Where: &ExistsExpr{Select: &SelectStmt{Body: &SelectBody{Left: &SelectCore{From: &FromClause{Source: &TableName{Name: "t3"}}}}}},
		}},
	}

	var tables, columns []string
	Walk(stmt, func(n any) bool {
		switch x := n.(type) {
		case *TableName:
			tables = append(tables, x.Name)
		case *ColumnRef:
			columns = append(columns, x.Column)
		}
		return true
	})

	assert.Equal(t, []string{"t1", "t2", "t3"}, tables)
	assert.Equal(t, []string{"a", "b", "c"}, columns)
}

func TestWalk_SkipChildren(t *testing.T) {
	stmt := &SelectStmt{Body: &SelectBody{Left: &SelectCore{
		Where: &SubqueryExpr{Select: &SelectStmt{Body: &SelectBody{Left: &SelectCore{From: &FromClause{Source: &TableName{Name: "hidden"}}}}}},
	}}}

	var seen []string
	Walk(stmt, func(n any) bool {
		if _, ok := n.(*SubqueryExpr); ok {
			return false
		}
		if tn, ok := n.(*TableName); ok {
			seen = append(seen, tn.Name)
		}
		return true
	})
	assert.Empty(t, seen)
}

func TestWalk_DDL(t *testing.T) {
	stmt := &CreateTableStmt{
		Name: &TableName{Name: "orders"},
		Columns: []*ColumnDef{{
			Name: "customer_id",
			Type: &TypeRef{Name: "INT"},
			Constraints: []*ColumnConstraint{{
				Kind: ConstraintForeignKey,
				Ref:  &ForeignKeyRef{Table: &TableName{Name: "customers"}},
			}},
		}},
		Constraints: []*TableConstraint{{
			Kind: ConstraintForeignKey,
			Ref:  &ForeignKeyRef{Table: &TableName{Name: "regions"}},
		}},
	}

	var tables []string
	var types int
	Walk(stmt, func(n any) bool {
		switch x := n.(type) {
		case *TableName:
			tables = append(tables, x.Name)
		case *TypeRef:
			types++
		}
		return true
	})
	assert.Equal(t, []string{"orders", "customers", "regions"}, tables)
	assert.Equal(t, 1, types)

	assert.NotPanics(t, func() { Walk((*SelectStmt)(nil), func(any) bool { return true }) })
}
