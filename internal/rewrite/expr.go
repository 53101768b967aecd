package rewrite

import (
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/mapping"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// ---------- Queries ----------

func (r *run) selectStmt(s *core.SelectStmt) *core.SelectStmt {
	if s == nil {
		return nil
	}
	out := &core.SelectStmt{NodeInfo: s.NodeInfo}
	if s.With != nil {
		w := &core.WithClause{NodeInfo: s.With.NodeInfo, Recursive: s.With.Recursive}
		for _, cte := range s.With.CTEs {
			w.CTEs = append(w.CTEs, &core.CTE{
				NodeInfo: cte.NodeInfo,
				Name:     cte.Name,
				Columns:  cloneStrings(cte.Columns),
				Select:   r.selectStmt(cte.Select),
			})
		}
		out.With = w
	}
	out.Body = r.body(s.Body)
	return out
}

func (r *run) body(b *core.SelectBody) *core.SelectBody {
	if b == nil {
		return nil
	}
	return &core.SelectBody{
		NodeInfo: b.NodeInfo,
		Left:     r.selectCore(b.Left),
		Op:       b.Op,
		All:      b.All,
		Right:    r.body(b.Right),
	}
}

func (r *run) selectCore(c *core.SelectCore) *core.SelectCore {
	if c == nil {
		return nil
	}
	out := &core.SelectCore{
		NodeInfo: c.NodeInfo,
		Distinct: c.Distinct,
		From:     r.from(c.From),
		Where:    r.expr(c.Where),
		GroupBy:  r.exprs(c.GroupBy),
		Having:   r.expr(c.Having),
		OrderBy:  r.orderBy(c.OrderBy),
		Limit:    r.expr(c.Limit),
		Offset:   r.expr(c.Offset),
	}
	for _, item := range c.Columns {
		out.Columns = append(out.Columns, core.SelectItem{
			Star:      item.Star,
			TableStar: item.TableStar,
			Expr:      r.expr(item.Expr),
			Alias:     item.Alias,
		})
	}
	if c.Qualify != nil {
		// Kept verbatim so the target grammar rejects it visibly.
		if !r.rw.to.SupportsQualify() {
			r.note(core.SeverityError, core.CodeUnsupportedClause, c.Qualify.Pos(), "QUALIFY",
				"QUALIFY is not supported in %s; rewrite the filter as a subquery over the window function", r.rw.to.Name)
		}
		out.Qualify = r.expr(c.Qualify)
	}
	return out
}

func (r *run) from(f *core.FromClause) *core.FromClause {
	if f == nil {
		return nil
	}
	out := &core.FromClause{NodeInfo: f.NodeInfo, Source: r.tableRef(f.Source)}
	for _, j := range f.Joins {
		out.Joins = append(out.Joins, &core.Join{
			NodeInfo:  j.NodeInfo,
			Type:      j.Type,
			Right:     r.tableRef(j.Right),
			Condition: r.expr(j.Condition),
			Using:     cloneStrings(j.Using),
		})
	}
	return out
}

func (r *run) tableRef(ref core.TableRef) core.TableRef {
	switch t := ref.(type) {
	case *core.TableName:
		return cloneTableName(t)
	case *core.DerivedTable:
		return &core.DerivedTable{NodeInfo: t.NodeInfo, Select: r.selectStmt(t.Select), Alias: t.Alias}
	default:
		return ref
	}
}

func (r *run) orderBy(items []core.OrderByItem) []core.OrderByItem {
	if items == nil {
		return nil
	}
	out := make([]core.OrderByItem, len(items))
	for i, item := range items {
		out[i] = core.OrderByItem{Expr: r.expr(item.Expr), Desc: item.Desc}
		if item.NullsFirst != nil {
			v := *item.NullsFirst
			out[i].NullsFirst = &v
		}
	}
	return out
}

// ---------- Expressions ----------

func (r *run) exprs(list []core.Expr) []core.Expr {
	if list == nil {
		return nil
	}
	out := make([]core.Expr, len(list))
	for i, e := range list {
		out[i] = r.expr(e)
	}
	return out
}

func (r *run) expr(e core.Expr) core.Expr {
	switch x := e.(type) {
	case nil:
		return nil

	case *core.ColumnRef:
		c := *x
		return &c

	case *core.StarExpr:
		c := *x
		return &c

	case *core.Literal:
		c := *x
		return &c

	case *core.BinaryExpr:
		return r.binary(x)

	case *core.UnaryExpr:
		return &core.UnaryExpr{NodeInfo: x.NodeInfo, Op: x.Op, Expr: r.expr(x.Expr)}

	case *core.FuncCall:
		return r.funcCall(x)

	case *core.CastExpr:
		typ, _ := r.mapType(x.Type, "CAST", mapping.UseCast)
		return &core.CastExpr{
			NodeInfo:    x.NodeInfo,
			Expr:        r.expr(x.Expr),
			Type:        typ,
			DoubleColon: x.DoubleColon && r.rw.to.SupportsCastOperator(),
		}

	case *core.CaseExpr:
		out := &core.CaseExpr{NodeInfo: x.NodeInfo, Operand: r.expr(x.Operand), Else: r.expr(x.Else)}
		for _, w := range x.Whens {
			out.Whens = append(out.Whens, core.WhenClause{Condition: r.expr(w.Condition), Result: r.expr(w.Result)})
		}
		return out

	case *core.InExpr:
		return &core.InExpr{
			NodeInfo: x.NodeInfo,
			Expr:     r.expr(x.Expr),
			Not:      x.Not,
			Values:   r.exprs(x.Values),
			Query:    r.selectStmt(x.Query),
		}

	case *core.BetweenExpr:
		return &core.BetweenExpr{NodeInfo: x.NodeInfo, Expr: r.expr(x.Expr), Not: x.Not, Low: r.expr(x.Low), High: r.expr(x.High)}

	case *core.LikeExpr:
		return r.like(x)

	case *core.IsNullExpr:
		return &core.IsNullExpr{NodeInfo: x.NodeInfo, Expr: r.expr(x.Expr), Not: x.Not}

	case *core.IsBoolExpr:
		return &core.IsBoolExpr{NodeInfo: x.NodeInfo, Expr: r.expr(x.Expr), Not: x.Not, Value: x.Value}

	case *core.ParenExpr:
		return &core.ParenExpr{NodeInfo: x.NodeInfo, Expr: r.expr(x.Expr)}

	case *core.SubqueryExpr:
		return &core.SubqueryExpr{NodeInfo: x.NodeInfo, Select: r.selectStmt(x.Select)}

	case *core.ExistsExpr:
		return &core.ExistsExpr{NodeInfo: x.NodeInfo, Not: x.Not, Select: r.selectStmt(x.Select)}

	case *core.IndexExpr:
		if !r.rw.to.SupportsArrays() {
			r.note(core.SeverityError, core.CodeUnsupportedClause, x.Pos(), "[]",
				"array subscript is not supported in %s", r.rw.to.Name)
		}
		return &core.IndexExpr{NodeInfo: x.NodeInfo, Expr: r.expr(x.Expr), Index: r.expr(x.Index)}

	default:
		return e
	}
}

// binary rewrites || between dialects that disagree on its meaning.
func (r *run) binary(x *core.BinaryExpr) core.Expr {
	left, right := r.expr(x.Left), r.expr(x.Right)
	from, to := r.rw.from, r.rw.to

	if x.Op == token.DPIPE && from.PipesAsOr() != to.PipesAsOr() {
		if from.PipesAsOr() {
			r.note(core.SeverityInfo, core.CodeOperatorRewritten, x.Pos(), "||",
				"|| is logical OR in %s; rewritten as OR", from.Name)
			return &core.BinaryExpr{NodeInfo: x.NodeInfo, Left: left, Op: token.OR, Right: right}
		}
		r.note(core.SeverityInfo, core.CodeOperatorRewritten, x.Pos(), "||",
			"string concatenation || rewritten as CONCAT() for %s", to.Name)
		return &core.FuncCall{NodeInfo: x.NodeInfo, Name: "CONCAT", Args: concatArgs(left, right)}
	}
	return &core.BinaryExpr{NodeInfo: x.NodeInfo, Left: left, Op: x.Op, Right: right}
}

// concatArgs flattens nested CONCAT calls built from a chain of ||.
func concatArgs(left, right core.Expr) []core.Expr {
	var args []core.Expr
	if f, ok := left.(*core.FuncCall); ok && f.Name == "CONCAT" && f.Window == nil {
		args = append(args, f.Args...)
	} else {
		args = append(args, left)
	}
	return append(args, right)
}

// like rewrites ILIKE as LOWER(a) LIKE LOWER(b) for targets without it.
func (r *run) like(x *core.LikeExpr) core.Expr {
	out := &core.LikeExpr{NodeInfo: x.NodeInfo, Expr: r.expr(x.Expr), Not: x.Not, Op: x.Op, Pattern: r.expr(x.Pattern)}
	if x.Op != core.OpILike || r.rw.to.SupportsIlike() {
		return out
	}
	r.note(core.SeverityInfo, core.CodeOperatorRewritten, x.Pos(), "ILIKE",
		"ILIKE rewritten as LOWER(...) LIKE LOWER(...) for %s", r.rw.to.Name)
	out.Op = core.OpLike
	out.Expr = &core.FuncCall{NodeInfo: x.NodeInfo, Name: "LOWER", Args: []core.Expr{out.Expr}}
	out.Pattern = &core.FuncCall{NodeInfo: x.NodeInfo, Name: "LOWER", Args: []core.Expr{out.Pattern}}
	return out
}

func (r *run) funcCall(x *core.FuncCall) core.Expr {
	res := r.rw.catalog.MapFunction(x.Name, r.rw.from.Name, r.rw.to.Name)
	out := &core.FuncCall{
		NodeInfo: x.NodeInfo,
		Name:     res.Target,
		Distinct: x.Distinct,
		Args:     r.exprs(x.Args),
		Star:     x.Star,
	}
	if x.Window != nil {
		w := &core.WindowSpec{PartitionBy: r.exprs(x.Window.PartitionBy), OrderBy: r.orderBy(x.Window.OrderBy)}
		if f := x.Window.Frame; f != nil {
			w.Frame = &core.FrameSpec{Type: f.Type, Start: r.frameBound(f.Start), End: r.frameBound(f.End)}
		}
		out.Window = w
	}

	switch res.Outcome {
	case mapping.Passthrough:
		out.Name = x.Name
		r.note(core.SeverityInfo, core.CodeUnmappedFunction, x.Pos(), x.Name, "%s", res.Note)
	case mapping.Lossy:
		r.note(core.SeverityWarning, core.CodeLossyFunctionMapping, x.Pos(), x.Name,
			"%s mapped to %s: %s", x.Name, res.Target, res.Note)
	case mapping.Unsupported:
		r.note(core.SeverityError, core.CodeMappingGap, x.Pos(), x.Name,
			"function %s has no %s equivalent (%s); emitted as %s", x.Name, r.rw.to.Name, res.Note, res.Target)
	}
	return out
}

func (r *run) frameBound(b *core.FrameBound) *core.FrameBound {
	if b == nil {
		return nil
	}
	return &core.FrameBound{Type: b.Type, Offset: r.expr(b.Offset)}
}
