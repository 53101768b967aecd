package lineage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names under the lineage directory.
const (
	GraphFile       = "lineage.json"
	ParseErrorsFile = "parse_errors.json"
)

// Document is the serialized form of a Result.
type Document struct {
	Nodes       []NodeDoc                   `json:"nodes"`
	Edges       []EdgeDoc                   `json:"edges"`
	Columns     map[string][]*ColumnLineage `json:"columns"`
	Order       []string                    `json:"order"`
	DDLOrder    []string                    `json:"ddl_order"`
	Cycles      [][]string                  `json:"cycles"`
	QueryCycles [][]string                  `json:"query_cycles"`
}

// NodeDoc is one asset in a Document.
type NodeDoc struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Path       string   `json:"path"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Parsed     bool     `json:"parsed"`
	References []string `json:"references"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// EdgeDoc is a dependency: To reads From.
type EdgeDoc struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Document converts the result to its serialized form.
func (r *Result) Document() *Document {
	doc := &Document{
		Nodes:       make([]NodeDoc, 0, len(r.Assets)),
		Edges:       []EdgeDoc{},
		Columns:     make(map[string][]*ColumnLineage),
		Order:       r.names(r.Order),
		DDLOrder:    r.names(r.DDLOrder),
		Cycles:      [][]string{},
		QueryCycles: [][]string{},
	}
	for i, a := range r.Assets {
		refs := r.References[i]
		if refs == nil {
			refs = []string{}
		}
		doc.Nodes = append(doc.Nodes, NodeDoc{
			Name:       a.Name,
			Kind:       a.Kind.String(),
			Path:       a.Path,
			Line:       a.Line,
			Column:     a.Column,
			Parsed:     r.Stmts[i] != nil,
			References: refs,
			Unresolved: r.Unresolved[i],
		})
		if len(r.Columns[i]) > 0 {
			doc.Columns[a.Name] = r.Columns[i]
		}
	}
	for _, e := range r.Graph.Edges() {
		doc.Edges = append(doc.Edges, EdgeDoc{From: r.Graph.Name(e.From), To: r.Graph.Name(e.To)})
	}
	for _, c := range r.Cycles {
		doc.Cycles = append(doc.Cycles, r.names(c))
	}
	for _, c := range r.QueryCycles {
		doc.QueryCycles = append(doc.QueryCycles, r.names(c))
	}
	return doc
}

func (r *Result) names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.Assets[id].Name
	}
	return out
}

// Write stores lineage.json and parse_errors.json in dir.
func (r *Result) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create lineage directory: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, GraphFile), r.Document()); err != nil {
		return err
	}
	parseErrors := r.ParseErrors
	if parseErrors == nil {
		parseErrors = []ParseErrorRecord{}
	}
	return writeJSON(filepath.Join(dir, ParseErrorsFile), parseErrors)
}

// ReadDocument loads a lineage.json written by Write.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &doc, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
