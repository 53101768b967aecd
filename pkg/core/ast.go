package core

import "github.com/leapstack-labs/leapmigrate/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
	// End returns the position of the character immediately after the node.
	End() token.Position
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode() // Marker method to distinguish statements
}

// TableRef is a marker interface for items that can appear in a FROM clause.
type TableRef interface {
	Node
	tableRefNode()
}

// NodeInfo records the source span of a node. Nodes built by a rewrite
// rather than a parse carry a zero NodeInfo.
type NodeInfo struct {
	Span token.Span
}

// Pos returns the start position.
func (n NodeInfo) Pos() token.Position { return n.Span.Start }

// End returns the end position.
func (n NodeInfo) End() token.Position { return n.Span.End }

// At builds a NodeInfo starting at pos.
func At(pos token.Position) NodeInfo {
	return NodeInfo{Span: token.Span{Start: pos}}
}
