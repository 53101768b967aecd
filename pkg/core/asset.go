package core

import (
	"fmt"
	"strings"
)

// AssetKind classifies a legacy object.
type AssetKind int

// Asset kinds.
const (
	KindTable AssetKind = iota
	KindView
	KindStoredQuery
)

// String returns the lowercase name used in artifacts.
func (k AssetKind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindView:
		return "view"
	case KindStoredQuery:
		return "query"
	default:
		return "unknown"
	}
}

// IsDDL reports whether assets of this kind take part in DDL emission order.
func (k AssetKind) IsDDL() bool {
	return k == KindTable || k == KindView
}

// MarshalText implements encoding.TextMarshaler.
func (k AssetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *AssetKind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "table":
		*k = KindTable
	case "view":
		*k = KindView
	case "query":
		*k = KindStoredQuery
	default:
		return fmt.Errorf("unknown asset kind %q", string(b))
	}
	return nil
}

// Asset is a named legacy object subject to migration. It is created by
// ingestion and never mutated afterwards.
type Asset struct {
	Name    string    `json:"name"`
	Kind    AssetKind `json:"kind"`
	Source  string    `json:"-"`
	Dialect string    `json:"dialect"`
	Path    string    `json:"path"`
	// Ordinal is the statement's index within Path (0-based).
	Ordinal int `json:"ordinal"`
	// Line and Column locate the statement's first character in Path.
	Line   int `json:"line"`
	Column int `json:"column"`
}

// FileLocation translates a position inside Source to the same position in
// the asset's file.
func (a *Asset) FileLocation(line, column int) (int, int) {
	if line <= 1 {
		return a.Line, a.Column + column - 1
	}
	return a.Line + line - 1, column
}
