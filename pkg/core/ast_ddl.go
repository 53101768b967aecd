package core

// ---------- DDL Statement Types ----------

// CreateTableStmt represents CREATE TABLE.
type CreateTableStmt struct {
	NodeInfo
	OrReplace   bool
	Temporary   bool
	IfNotExists bool
	Name        *TableName
	Columns     []*ColumnDef
	Constraints []*TableConstraint
}

func (*CreateTableStmt) stmtNode() {}

// CreateViewStmt represents CREATE [OR REPLACE] [MATERIALIZED] VIEW.
type CreateViewStmt struct {
	NodeInfo
	OrReplace    bool
	Materialized bool
	IfNotExists  bool
	Name         *TableName
	Columns      []string
	Select       *SelectStmt
}

func (*CreateViewStmt) stmtNode() {}

// TypeRef is a data type reference such as NUMERIC(10,2) or TEXT[].
type TypeRef struct {
	NodeInfo
	Name   string   // upper-case, multi-word names joined by a space
	Params []string // raw parameter text: "10", "2", "MAX"
	Array  bool     // trailing []
}

// String renders the type the way it was written, normalized to upper case.
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	s := t.Name
	if len(t.Params) > 0 {
		s += "("
		for i, p := range t.Params {
			if i > 0 {
				s += ","
			}
			s += p
		}
		s += ")"
	}
	if t.Array {
		s += "[]"
	}
	return s
}

// ColumnDef represents one column in CREATE TABLE.
type ColumnDef struct {
	NodeInfo
	Name        string
	Quoted      bool
	Type        *TypeRef
	Constraints []*ColumnConstraint
}

// Has reports whether the column carries a constraint of the given kind.
func (c *ColumnDef) Has(kind ConstraintKind) bool {
	return c.Constraint(kind) != nil
}

// Constraint returns the first constraint of the given kind, or nil.
func (c *ColumnDef) Constraint(kind ConstraintKind) *ColumnConstraint {
	for _, cc := range c.Constraints {
		if cc.Kind == kind {
			return cc
		}
	}
	return nil
}

// ConstraintKind classifies column and table constraints.
type ConstraintKind string

// Constraint kinds.
const (
	ConstraintNotNull       ConstraintKind = "NOT NULL"
	ConstraintNull          ConstraintKind = "NULL"
	ConstraintPrimaryKey    ConstraintKind = "PRIMARY KEY"
	ConstraintUnique        ConstraintKind = "UNIQUE"
	ConstraintForeignKey    ConstraintKind = "FOREIGN KEY"
	ConstraintCheck         ConstraintKind = "CHECK"
	ConstraintDefault       ConstraintKind = "DEFAULT"
	ConstraintAutoIncrement ConstraintKind = "AUTO INCREMENT"
)

// ColumnConstraint is a constraint attached to a single column.
type ColumnConstraint struct {
	NodeInfo
	Name    string // CONSTRAINT name, optional
	Kind    ConstraintKind
	Default Expr           // ConstraintDefault
	Check   Expr           // ConstraintCheck
	Ref     *ForeignKeyRef // ConstraintForeignKey (inline REFERENCES)
	Always  bool           // GENERATED ALWAYS AS IDENTITY
}

// TableConstraint is a constraint declared after the column list.
type TableConstraint struct {
	NodeInfo
	Name    string
	Kind    ConstraintKind
	Columns []string
	Check   Expr
	Ref     *ForeignKeyRef
}

// ForeignKeyRef is the REFERENCES target of a foreign key.
type ForeignKeyRef struct {
	Table    *TableName
	Columns  []string
	OnDelete string // CASCADE, SET NULL, RESTRICT, NO ACTION, SET DEFAULT
	OnUpdate string
}
