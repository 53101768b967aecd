package mapping

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// documentYAML is the on-disk shape of one dialect's mapping file.
type documentYAML struct {
	Dialect   string         `yaml:"dialect"`
	Types     typesYAML      `yaml:"types"`
	Functions sectionYAML    `yaml:"functions"`
	Overrides []overrideYAML `yaml:"overrides"`
}

type sectionYAML struct {
	Common []string     `yaml:"common"`
	Import []importYAML `yaml:"import"`
	Export []exportYAML `yaml:"export"`
}

// typesYAML adds the position-specific export tables. A cast entry applies
// to CAST targets and a key entry to key columns; both fall back to export.
type typesYAML struct {
	sectionYAML `yaml:",inline"`
	Cast        []exportYAML `yaml:"cast"`
	Key         []exportYAML `yaml:"key"`
}

type importYAML struct {
	Native        []string `yaml:"native"`
	Canonical     string   `yaml:"canonical"`
	AutoIncrement bool     `yaml:"auto_increment"`
	Lossy         string   `yaml:"lossy"`
}

type exportYAML struct {
	Canonical            string   `yaml:"canonical"`
	Native               string   `yaml:"native"`
	Params               []string `yaml:"params"`
	DefaultParams        []string `yaml:"default_params"`
	DropParams           bool     `yaml:"drop_params"`
	MaxPrecision         int      `yaml:"max_precision"`
	Lossy                string   `yaml:"lossy"`
	LossyUnparameterized string   `yaml:"lossy_unparameterized"`
	Unsupported          string   `yaml:"unsupported"`
}

// overrideYAML maps a source dialect's symbol straight to a native symbol of
// the file's dialect, bypassing the canonical vocabulary.
type overrideYAML struct {
	From        string   `yaml:"from"`
	Type        string   `yaml:"type"`
	Function    string   `yaml:"function"`
	Native      string   `yaml:"native"`
	Params      []string `yaml:"params"`
	Lossy       string   `yaml:"lossy"`
	Unsupported string   `yaml:"unsupported"`
}

type importRule struct {
	canonical     string
	autoIncrement bool
	lossy         string
}

type exportRule struct {
	native               string
	params               []string
	defaultParams        []string
	dropParams           bool
	maxPrecision         int
	lossy                string
	lossyUnparameterized string
	unsupported          string
}

type pairKey struct {
	from   string
	symbol string
}

// Table is the mapping data of one dialect.
type Table struct {
	Dialect string

	typeImport    map[string]importRule
	typeExport    map[string]exportRule
	typeCast      map[string]exportRule
	typeKey       map[string]exportRule
	funcImport    map[string]importRule
	funcExport    map[string]exportRule
	typeOverrides map[pairKey]exportRule
	funcOverrides map[pairKey]exportRule
}

func newTable(dialect string) *Table {
	return &Table{
		Dialect:       dialect,
		typeImport:    make(map[string]importRule),
		typeExport:    make(map[string]exportRule),
		typeCast:      make(map[string]exportRule),
		typeKey:       make(map[string]exportRule),
		funcImport:    make(map[string]importRule),
		funcExport:    make(map[string]exportRule),
		typeOverrides: make(map[pairKey]exportRule),
		funcOverrides: make(map[pairKey]exportRule),
	}
}

// Tables holds the mapping tables of every known dialect. It is read-only
// once loaded and safe for concurrent use.
type Tables struct {
	tables map[string]*Table
}

// Table returns the table of one dialect.
func (ts *Tables) Table(dialect string) (*Table, bool) {
	t, ok := ts.tables[strings.ToLower(dialect)]
	return t, ok
}

// Dialects returns the dialects that have mapping tables, sorted.
func (ts *Tables) Dialects() []string {
	names := make([]string, 0, len(ts.tables))
	for name := range ts.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var loadDefault = sync.OnceValues(func() (*Tables, error) {
	return Load("")
})

// Default returns the embedded tables, loaded once per process.
func Default() (*Tables, error) {
	return loadDefault()
}

// Load reads the embedded tables and, when overlayPath is set, applies the
// user mapping file on top of them. Overlay entries replace embedded entries
// with the same key.
func Load(overlayPath string) (*Tables, error) {
	ts := &Tables{tables: make(map[string]*Table)}

	entries, err := fs.ReadDir(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("reading embedded mappings: %w", err)
	}
	for _, e := range entries {
		name := path.Join("data", e.Name())
		data, err := dataFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if err := ts.apply(name, data); err != nil {
			return nil, err
		}
	}

	if overlayPath != "" {
		data, err := os.ReadFile(overlayPath) //nolint:gosec // user-supplied mapping file
		if err != nil {
			return nil, fmt.Errorf("reading mappings file: %w", err)
		}
		if err := ts.apply(overlayPath, data); err != nil {
			return nil, err
		}
	}

	return ts, nil
}

// apply decodes every YAML document in data and merges it into ts.
func (ts *Tables) apply(source string, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	for {
		var doc documentYAML
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &LoadError{Source: source, Message: err.Error()}
		}
		if err := ts.merge(source, &doc); err != nil {
			return err
		}
	}
}

func (ts *Tables) merge(source string, doc *documentYAML) error {
	dialect := strings.ToLower(strings.TrimSpace(doc.Dialect))
	if dialect == "" {
		return &LoadError{Source: source, Message: "document has no dialect"}
	}
	t, ok := ts.tables[dialect]
	if !ok {
		t = newTable(dialect)
		ts.tables[dialect] = t
	}

	for _, name := range doc.Types.Common {
		name = upper(name)
		if !isCanonicalType(name) {
			return &LoadError{Source: source, Message: fmt.Sprintf("%s: %s is not a canonical type", dialect, name)}
		}
		t.typeImport[name] = importRule{canonical: name}
		t.typeExport[name] = exportRule{native: name}
	}
	for _, imp := range doc.Types.Import {
		canonical := upper(imp.Canonical)
		if !isCanonicalType(canonical) {
			return &LoadError{Source: source, Message: fmt.Sprintf("%s: %s is not a canonical type", dialect, imp.Canonical)}
		}
		for _, native := range imp.Native {
			t.typeImport[upper(native)] = importRule{canonical: canonical, autoIncrement: imp.AutoIncrement, lossy: imp.Lossy}
		}
	}
	for _, exp := range doc.Types.Export {
		canonical := upper(exp.Canonical)
		if !isCanonicalType(canonical) {
			return &LoadError{Source: source, Message: fmt.Sprintf("%s: %s is not a canonical type", dialect, exp.Canonical)}
		}
		if exp.Native == "" && exp.Unsupported == "" {
			return &LoadError{Source: source, Message: fmt.Sprintf("%s: export of %s needs native or unsupported", dialect, canonical)}
		}
		t.typeExport[canonical] = exp.rule()
	}
	if err := mergeExports(source, dialect, "cast", doc.Types.Cast, t.typeCast); err != nil {
		return err
	}
	if err := mergeExports(source, dialect, "key", doc.Types.Key, t.typeKey); err != nil {
		return err
	}

	for _, name := range doc.Functions.Common {
		name = upper(name)
		t.funcImport[name] = importRule{canonical: name}
		t.funcExport[name] = exportRule{native: name}
	}
	for _, imp := range doc.Functions.Import {
		for _, native := range imp.Native {
			t.funcImport[upper(native)] = importRule{canonical: upper(imp.Canonical), lossy: imp.Lossy}
		}
	}
	for _, exp := range doc.Functions.Export {
		if exp.Native == "" && exp.Unsupported == "" {
			return &LoadError{Source: source, Message: fmt.Sprintf("%s: export of %s needs native or unsupported", dialect, exp.Canonical)}
		}
		t.funcExport[upper(exp.Canonical)] = exp.rule()
	}

	for _, o := range doc.Overrides {
		rule := exportRule{native: upper(o.Native), params: o.Params, lossy: o.Lossy, unsupported: o.Unsupported}
		from := strings.ToLower(o.From)
		switch {
		case o.Type != "" && o.Function == "":
			t.typeOverrides[pairKey{from: from, symbol: upper(o.Type)}] = rule
		case o.Function != "" && o.Type == "":
			t.funcOverrides[pairKey{from: from, symbol: upper(o.Function)}] = rule
		default:
			return &LoadError{Source: source, Message: fmt.Sprintf("%s: override from %s needs exactly one of type or function", dialect, o.From)}
		}
	}
	return nil
}

func mergeExports(source, dialect, section string, entries []exportYAML, into map[string]exportRule) error {
	for _, exp := range entries {
		canonical := upper(exp.Canonical)
		if !isCanonicalType(canonical) {
			return &LoadError{Source: source, Message: fmt.Sprintf("%s: %s entry %s is not a canonical type", dialect, section, exp.Canonical)}
		}
		if exp.Native == "" && exp.Unsupported == "" {
			return &LoadError{Source: source, Message: fmt.Sprintf("%s: %s entry %s needs native or unsupported", dialect, section, canonical)}
		}
		into[canonical] = exp.rule()
	}
	return nil
}

func (e exportYAML) rule() exportRule {
	return exportRule{
		native:               upper(e.Native),
		params:               e.Params,
		defaultParams:        e.DefaultParams,
		dropParams:           e.DropParams,
		maxPrecision:         e.MaxPrecision,
		lossy:                e.Lossy,
		lossyUnparameterized: e.LossyUnparameterized,
		unsupported:          e.Unsupported,
	}
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
