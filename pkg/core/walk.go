package core

// Walk traverses an AST depth-first and calls fn for each node. If fn
// returns false, the children of that node are skipped.
//
// Besides Node values, fn also sees *WithClause, *CTE, *SelectBody,
// *SelectCore, *FromClause, *Join, *ColumnDef and *TableConstraint.
func Walk(node any, fn func(node any) bool) {
	if isNil(node) {
		return
	}
	if !fn(node) {
		return
	}
	walkNode(node, fn)
}

// isNil catches typed nil pointers stored in interfaces.
func isNil(node any) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *SelectStmt:
		return n == nil
	case *WithClause:
		return n == nil
	case *CTE:
		return n == nil
	case *SelectBody:
		return n == nil
	case *SelectCore:
		return n == nil
	case *FromClause:
		return n == nil
	case *Join:
		return n == nil
	case *TableName:
		return n == nil
	case *DerivedTable:
		return n == nil
	case *CreateTableStmt:
		return n == nil
	case *CreateViewStmt:
		return n == nil
	case *ColumnDef:
		return n == nil
	case *TableConstraint:
		return n == nil
	case *TypeRef:
		return n == nil
	}
	return false
}

func walkNode(node any, fn func(node any) bool) {
	switch n := node.(type) {
	case *SelectStmt:
		Walk(n.With, fn)
		Walk(n.Body, fn)

	case *WithClause:
		for _, cte := range n.CTEs {
			Walk(cte, fn)
		}

	case *CTE:
		Walk(n.Select, fn)

	case *SelectBody:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *SelectCore:
		for _, col := range n.Columns {
			walkExpr(col.Expr, fn)
		}
		Walk(n.From, fn)
		walkExpr(n.Where, fn)
		for _, expr := range n.GroupBy {
			walkExpr(expr, fn)
		}
		walkExpr(n.Having, fn)
		walkExpr(n.Qualify, fn)
		walkOrderBy(n.OrderBy, fn)
		walkExpr(n.Limit, fn)
		walkExpr(n.Offset, fn)

	case *FromClause:
		walkTableRef(n.Source, fn)
		for _, join := range n.Joins {
			Walk(join, fn)
		}

	case *Join:
		walkTableRef(n.Right, fn)
		walkExpr(n.Condition, fn)

	case *TableName:
		// Leaf node

	case *DerivedTable:
		Walk(n.Select, fn)

	case *CreateTableStmt:
		Walk(n.Name, fn)
		for _, col := range n.Columns {
			Walk(col, fn)
		}
		for _, tc := range n.Constraints {
			Walk(tc, fn)
		}

	case *ColumnDef:
		Walk(n.Type, fn)
		for _, cc := range n.Constraints {
			walkExpr(cc.Default, fn)
			walkExpr(cc.Check, fn)
			if cc.Ref != nil {
				Walk(cc.Ref.Table, fn)
			}
		}

	case *TableConstraint:
		walkExpr(n.Check, fn)
		if n.Ref != nil {
			Walk(n.Ref.Table, fn)
		}

	case *CreateViewStmt:
		Walk(n.Name, fn)
		Walk(n.Select, fn)

	case *BinaryExpr:
		walkExpr(n.Left, fn)
		walkExpr(n.Right, fn)

	case *UnaryExpr:
		walkExpr(n.Expr, fn)

	case *FuncCall:
		for _, arg := range n.Args {
			walkExpr(arg, fn)
		}
		if n.Window != nil {
			for _, e := range n.Window.PartitionBy {
				walkExpr(e, fn)
			}
			walkOrderBy(n.Window.OrderBy, fn)
		}

	case *CaseExpr:
		walkExpr(n.Operand, fn)
		for _, when := range n.Whens {
			walkExpr(when.Condition, fn)
			walkExpr(when.Result, fn)
		}
		walkExpr(n.Else, fn)

	case *CastExpr:
		walkExpr(n.Expr, fn)
		Walk(n.Type, fn)

	case *InExpr:
		walkExpr(n.Expr, fn)
		for _, v := range n.Values {
			walkExpr(v, fn)
		}
		Walk(n.Query, fn)

	case *BetweenExpr:
		walkExpr(n.Expr, fn)
		walkExpr(n.Low, fn)
		walkExpr(n.High, fn)

	case *LikeExpr:
		walkExpr(n.Expr, fn)
		walkExpr(n.Pattern, fn)

	case *IsNullExpr:
		walkExpr(n.Expr, fn)

	case *IsBoolExpr:
		walkExpr(n.Expr, fn)

	case *ParenExpr:
		walkExpr(n.Expr, fn)

	case *SubqueryExpr:
		Walk(n.Select, fn)

	case *ExistsExpr:
		Walk(n.Select, fn)

	case *IndexExpr:
		walkExpr(n.Expr, fn)
		walkExpr(n.Index, fn)
	}
}

// walkExpr skips nil interface values before they reach Walk.
func walkExpr(e Expr, fn func(node any) bool) {
	if e != nil {
		Walk(e, fn)
	}
}

func walkTableRef(r TableRef, fn func(node any) bool) {
	if r != nil {
		Walk(r, fn)
	}
}

func walkOrderBy(items []OrderByItem, fn func(node any) bool) {
	for _, item := range items {
		walkExpr(item.Expr, fn)
	}
}
