package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/mapping"
)

// generateDialectDocs writes one page per dialect listing how each of its
// types translates to every other dialect.
func generateDialectDocs(outDir string) error {
	log.Printf("Generating dialect docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	names := cat.Dialects()

	index := NewMarkdownWriter()
	index.Frontmatter("Dialects", "Supported SQL dialects")
	index.GeneratedMarker()
	index.Header(1, "Dialects")
	var rows [][]string
	for _, name := range names {
		desc, err := cat.Describe(name)
		if err != nil {
			return err
		}
		rows = append(rows, []string{fmt.Sprintf("[%s](/dialects/%s)", InlineCode(name), name), cleanDescription(desc)})
	}
	index.Table([]string{"Dialect", "Summary"}, rows)
	if err := os.WriteFile(filepath.Join(outDir, "index.md"), index.Bytes(), 0600); err != nil {
		return err
	}

	for _, from := range names {
		if err := generateDialectPage(cat, from, names, outDir); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", from, err)
		}
		log.Printf("  Generated %s.md", from)
	}
	return nil
}

func generateDialectPage(cat *catalog.Catalog, from string, names []string, outDir string) error {
	d, err := cat.Dialect(from)
	if err != nil {
		return err
	}
	desc, err := cat.Describe(from)
	if err != nil {
		return err
	}

	w := NewMarkdownWriter()
	w.Frontmatter(from, desc)
	w.GeneratedMarker()
	w.Header(1, from)
	w.Paragraph(desc)

	w.Header(2, "Type translations")
	headers := []string{"Type"}
	var targets []string
	for _, to := range names {
		if to != from {
			headers = append(headers, to)
			targets = append(targets, to)
		}
	}
	var rows [][]string
	for _, typ := range d.DataTypes() {
		row := []string{InlineCode(typ)}
		for _, to := range targets {
			row = append(row, typeCell(cat.MapType(&core.TypeRef{Name: typ}, from, to)))
		}
		rows = append(rows, row)
	}
	w.Table(headers, rows)

	return os.WriteFile(filepath.Join(outDir, from+".md"), w.Bytes(), 0600)
}

func typeCell(res mapping.Result) string {
	switch res.Outcome {
	case mapping.Exact:
		return res.Target
	case mapping.Unsupported:
		return "unsupported"
	default:
		if res.Target == "" {
			return res.Outcome.String()
		}
		return fmt.Sprintf("%s (%s)", res.Target, res.Outcome)
	}
}
