package lineage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapmigrate/internal/dag"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/parser"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Parsed is one asset after parsing. Stmt is nil when Err is set.
type Parsed struct {
	Asset *core.Asset
	Stmt  core.Stmt
	Err   error
}

// ParseErrorRecord locates a statement that failed to parse, in file
// coordinates.
type ParseErrorRecord struct {
	Asset   string `json:"asset"`
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// Result is the lineage of one batch of assets. Node i of Graph is Assets[i].
type Result struct {
	Assets []*core.Asset
	Stmts  []core.Stmt
	Graph  *dag.Graph
	Schema *Schema

	// References holds the sorted table keys each asset reads, resolved or not.
	References [][]string
	// Unresolved holds the subset of References that match no asset.
	Unresolved [][]string
	// Columns holds the output column lineage of views and queries.
	Columns [][]*ColumnLineage

	ParseErrors []ParseErrorRecord

	// Order is a topological order of every asset.
	Order []int
	// DDLOrder is the emission order of tables and views.
	DDLOrder []int
	// Cycles are the table/view cycles; QueryCycles involve a stored query.
	Cycles      [][]int
	QueryCycles [][]int

	// Findings are asset-scoped problems found while building lineage.
	Findings [][]core.Finding

	byName map[string]int
}

// Index returns the node index of a named asset.
func (r *Result) Index(name string) (int, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Build computes lineage over parsed assets. Assets keep their input order
// as node indices.
func Build(parsed []Parsed) *Result {
	n := len(parsed)
	r := &Result{
		Assets:     make([]*core.Asset, n),
		Stmts:      make([]core.Stmt, n),
		Graph:      dag.NewGraph(),
		Schema:     NewSchema(),
		References: make([][]string, n),
		Unresolved: make([][]string, n),
		Columns:    make([][]*ColumnLineage, n),
		Findings:   make([][]core.Finding, n),
		byName:     make(map[string]int, n),
	}

	for i, p := range parsed {
		r.Assets[i] = p.Asset
		r.Stmts[i] = p.Stmt
		r.Graph.AddNode(p.Asset.Name)
		r.byName[p.Asset.Name] = i
		if p.Err != nil {
			r.recordParseError(i, p.Err)
			continue
		}
		if ct, ok := p.Stmt.(*core.CreateTableStmt); ok {
			r.Schema.Add(ct)
		}
	}

	bare := r.bareIndex()
	for i, stmt := range r.Stmts {
		if stmt == nil {
			continue
		}
		r.References[i] = References(stmt)
		r.Columns[i] = ExtractColumns(stmt, r.Schema)
		for _, ref := range r.References[i] {
			parent, ok := r.resolveAsset(ref, bare)
			if !ok {
				r.Unresolved[i] = append(r.Unresolved[i], ref)
				continue
			}
			if parent == i {
				// Self references impose no ordering.
				continue
			}
			_ = r.Graph.AddEdge(parent, i)
		}
	}

	r.Order = r.Graph.TopologicalOrder()
	r.computeDDL()
	r.flagCycles()
	return r
}

// bareIndex maps unqualified asset names to the assets that carry them.
func (r *Result) bareIndex() map[string][]int {
	out := make(map[string][]int)
	for i, a := range r.Assets {
		b := bareName(a.Name)
		out[b] = append(out[b], i)
	}
	return out
}

func (r *Result) resolveAsset(key string, bare map[string][]int) (int, bool) {
	if id, ok := r.byName[key]; ok {
		return id, true
	}
	if candidates := bare[bareName(key)]; len(candidates) == 1 {
		return candidates[0], true
	}
	return 0, false
}

func (r *Result) computeDDL() {
	var ddl []int
	for i, a := range r.Assets {
		if a.Kind.IsDDL() {
			ddl = append(ddl, i)
		}
	}
	sub, origin := r.Graph.Subgraph(ddl)
	for _, id := range sub.TopologicalOrder() {
		r.DDLOrder = append(r.DDLOrder, origin[id])
	}
	for _, cycle := range sub.Cycles() {
		mapped := make([]int, len(cycle))
		for j, id := range cycle {
			mapped[j] = origin[id]
		}
		r.Cycles = append(r.Cycles, mapped)
	}
}

func (r *Result) flagCycles() {
	for _, cycle := range r.Cycles {
		msg := "dependency cycle among " + r.joinNames(cycle)
		for _, id := range cycle {
			r.Findings[id] = append(r.Findings[id], core.Finding{
				Code:     core.CodeCyclicDependency,
				Severity: core.SeverityWarning,
				Message:  msg,
				Pos:      token.Position{Line: 1, Column: 1},
			})
		}
	}

	for _, cycle := range r.Graph.Cycles() {
		hasQuery := false
		for _, id := range cycle {
			if r.Assets[id].Kind == core.KindStoredQuery {
				hasQuery = true
				break
			}
		}
		if !hasQuery {
			continue
		}
		r.QueryCycles = append(r.QueryCycles, cycle)
		msg := "query dependency cycle among " + r.joinNames(cycle)
		for _, id := range cycle {
			if r.Assets[id].Kind != core.KindStoredQuery {
				continue
			}
			r.Findings[id] = append(r.Findings[id], core.Finding{
				Code:     core.CodeCyclicQueryDependency,
				Severity: core.SeverityInfo,
				Message:  msg,
				Pos:      token.Position{Line: 1, Column: 1},
			})
		}
	}
}

func (r *Result) joinNames(ids []int) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.Assets[id].Name
	}
	return strings.Join(names, ", ")
}

func (r *Result) recordParseError(i int, err error) {
	a := r.Assets[i]
	pos := ErrorPosition(err)
	line, col := a.FileLocation(pos.Line, pos.Column)
	r.ParseErrors = append(r.ParseErrors, ParseErrorRecord{
		Asset:   a.Name,
		Path:    a.Path,
		Line:    line,
		Column:  col,
		Message: ErrorMessage(err),
	})
	r.Findings[i] = append(r.Findings[i], core.Finding{
		Code:     core.CodeParseError,
		Severity: core.SeverityError,
		Message:  err.Error(),
		Pos:      pos,
	})
}

// ErrorPosition returns the statement-relative position carried by a parse
// or lex error, or 1:1 when there is none.
func ErrorPosition(err error) token.Position {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.Pos
	}
	var le *parser.LexError
	if errors.As(err, &le) {
		return le.Pos
	}
	return token.Position{Line: 1, Column: 1}
}

// ErrorMessage returns the message of a parse or lex error without its
// position prefix.
func ErrorMessage(err error) string {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.Message
	}
	var le *parser.LexError
	if errors.As(err, &le) {
		return le.Message
	}
	return err.Error()
}

// References returns the sorted, de-duplicated keys of the tables a
// statement reads. CTE names are excluded. For CREATE TABLE, the references
// are the targets of its foreign keys.
func References(stmt core.Stmt) []string {
	ctes := make(map[string]bool)
	core.Walk(stmt, func(n any) bool {
		if cte, ok := n.(*core.CTE); ok {
			ctes[strings.ToLower(cte.Name)] = true
		}
		return true
	})

	var own *core.TableName
	switch s := stmt.(type) {
	case *core.CreateTableStmt:
		own = s.Name
	case *core.CreateViewStmt:
		own = s.Name
	}

	seen := make(map[string]bool)
	core.Walk(stmt, func(n any) bool {
		tn, ok := n.(*core.TableName)
		if !ok || tn == own {
			return true
		}
		if tn.Schema == "" && tn.Catalog == "" && ctes[strings.ToLower(tn.Name)] {
			return true
		}
		seen[tn.Key()] = true
		return true
	})

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Describe returns a short human-readable summary.
func (r *Result) Describe() string {
	return fmt.Sprintf("%d assets, %d edges, %d parse errors, %d cycles",
		len(r.Assets), r.Graph.EdgeCount(), len(r.ParseErrors), len(r.Cycles)+len(r.QueryCycles))
}
