// Package rewrite translates parsed legacy statements into a target dialect.
//
// The rewriter never mutates its input. Every statement is rebuilt node by
// node into a new tree in which types, functions and dialect-specific
// constructs are substituted, and each substitution that is not exact leaves
// a TranslationNote behind. Columns and constraints are never dropped: a
// symbol without a target equivalent is replaced by a placeholder and
// reported as an error note.
package rewrite

import (
	"fmt"

	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/dialect"
	"github.com/leapstack-labs/leapmigrate/pkg/format"
	"github.com/leapstack-labs/leapmigrate/pkg/mapping"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Result is the translation of one asset.
type Result struct {
	Asset         string                 `json:"asset"`
	Kind          core.AssetKind         `json:"kind"`
	TargetDialect string                 `json:"target_dialect"`
	SQL           string                 `json:"sql"`
	AST           core.Stmt              `json:"-"`
	Notes         []core.TranslationNote `json:"notes"`
}

// HasErrors reports whether any note has error severity.
func (r *Result) HasErrors() bool {
	for _, n := range r.Notes {
		if n.Severity == core.SeverityError {
			return true
		}
	}
	return false
}

// Rewriter translates statements from one dialect to another. It holds no
// per-statement state and is safe for concurrent use.
type Rewriter struct {
	catalog *catalog.Catalog
	from    *dialect.Dialect
	to      *dialect.Dialect
}

// New returns a rewriter between two dialects known to the catalog.
func New(cat *catalog.Catalog, from, to string) (*Rewriter, error) {
	src, err := cat.Dialect(from)
	if err != nil {
		return nil, err
	}
	dst, err := cat.Dialect(to)
	if err != nil {
		return nil, err
	}
	return &Rewriter{catalog: cat, from: src, to: dst}, nil
}

// Source returns the source dialect.
func (rw *Rewriter) Source() *dialect.Dialect { return rw.from }

// Target returns the target dialect.
func (rw *Rewriter) Target() *dialect.Dialect { return rw.to }

// Rewrite translates one parsed asset.
func (rw *Rewriter) Rewrite(asset *core.Asset, stmt core.Stmt) *Result {
	r := &run{rw: rw, notes: []core.TranslationNote{}}
	out := r.stmt(stmt)
	core.SortNotes(r.notes)

	return &Result{
		Asset:         asset.Name,
		Kind:          asset.Kind,
		TargetDialect: rw.to.Name,
		SQL:           format.Format(out, rw.to),
		AST:           out,
		Notes:         r.notes,
	}
}

// run carries the notes of a single Rewrite call.
type run struct {
	rw    *Rewriter
	notes []core.TranslationNote
}

func (r *run) note(sev core.Severity, code core.Code, pos token.Position, subject, msg string, args ...any) {
	r.notes = append(r.notes, core.TranslationNote{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(msg, args...),
		Pos:      pos,
		Subject:  subject,
	})
}

func (r *run) stmt(s core.Stmt) core.Stmt {
	switch x := s.(type) {
	case *core.SelectStmt:
		return r.selectStmt(x)
	case *core.CreateTableStmt:
		return r.createTable(x)
	case *core.CreateViewStmt:
		return r.createView(x)
	default:
		return s
	}
}

// mapType translates a type reference used in the given position. subject
// names the column or expression the type belongs to in notes.
func (r *run) mapType(t *core.TypeRef, subject string, use mapping.Usage) (*core.TypeRef, mapping.Result) {
	if t == nil {
		return nil, mapping.Result{}
	}
	res := r.rw.catalog.MapTypeFor(t, r.rw.from.Name, r.rw.to.Name, use)
	out := &core.TypeRef{NodeInfo: t.NodeInfo, Name: res.Target, Params: res.Params, Array: t.Array}

	switch res.Outcome {
	case mapping.Lossy:
		r.note(core.SeverityWarning, core.CodeLossyTypeMapping, t.Pos(), subject,
			"%s mapped to %s: %s", t.String(), typeString(out), res.Note)
	case mapping.Unsupported:
		placeholder := r.rw.to.PlaceholderType
		if use == mapping.UseCast {
			placeholder = r.rw.to.CastPlaceholder()
		}
		out = &core.TypeRef{NodeInfo: t.NodeInfo, Name: placeholder}
		r.note(core.SeverityError, core.CodeMappingGap, t.Pos(), subject,
			"type %s has no %s equivalent (%s); %s used as placeholder", t.String(), r.rw.to.Name, res.Note, out.Name)
		return out, res
	}

	if t.Array && !r.rw.to.SupportsArrays() {
		placeholder := &core.TypeRef{NodeInfo: t.NodeInfo, Name: r.rw.to.PlaceholderType}
		r.note(core.SeverityError, core.CodeMappingGap, t.Pos(), subject,
			"array type %s is not supported in %s; %s used as placeholder", t.String(), r.rw.to.Name, placeholder.Name)
		return placeholder, mapping.Result{Outcome: mapping.Unsupported, Target: placeholder.Name}
	}
	return out, res
}

func typeString(t *core.TypeRef) string {
	return format.Type(t)
}
