package core

import "strings"

// ---------- Table Reference Types ----------

// TableName represents a table name reference.
type TableName struct {
	NodeInfo
	Catalog string
	Schema  string
	Name    string
	Alias   string
	Quoted  bool // name was written as a delimited identifier
}

func (*TableName) tableRefNode() {}

// Qualified returns the dotted name without alias (catalog.schema.name).
func (t *TableName) Qualified() string {
	parts := make([]string, 0, 3)
	if t.Catalog != "" {
		parts = append(parts, t.Catalog)
	}
	if t.Schema != "" {
		parts = append(parts, t.Schema)
	}
	parts = append(parts, t.Name)
	return strings.Join(parts, ".")
}

// Key returns the name used to match references against assets. Unquoted
// parts are case-insensitive and fold to lower case; a quoted final part
// keeps its spelling.
func (t *TableName) Key() string {
	name := t.Name
	if !t.Quoted {
		name = strings.ToLower(name)
	}
	parts := make([]string, 0, 3)
	if t.Catalog != "" {
		parts = append(parts, strings.ToLower(t.Catalog))
	}
	if t.Schema != "" {
		parts = append(parts, strings.ToLower(t.Schema))
	}
	parts = append(parts, name)
	return strings.Join(parts, ".")
}

// DerivedTable represents a subquery in FROM clause.
type DerivedTable struct {
	NodeInfo
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) tableRefNode() {}

// FromClause represents the FROM clause.
type FromClause struct {
	NodeInfo
	Source TableRef
	Joins  []*Join
}

// Join represents a JOIN clause.
type Join struct {
	NodeInfo
	Type      JoinType
	Right     TableRef
	Condition Expr     // ON clause (mutually exclusive with Using)
	Using     []string // USING (col1, col2) columns
}

// JoinType represents the type of join.
// The value is the SQL keyword (e.g., "LEFT", "INNER").
type JoinType string

// Standard join types shared by every supported dialect.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	// JoinComma represents an implicit cross join using comma syntax.
	JoinComma JoinType = ","
)
