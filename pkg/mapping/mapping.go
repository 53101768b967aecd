// Package mapping holds the type and function translation tables.
//
// Every dialect ships one YAML file with an import table (native symbol to
// canonical symbol) and an export table (canonical symbol to native symbol).
// Translating from one dialect to another goes through the canonical
// vocabulary, so adding a dialect means adding one file rather than a row for
// every dialect pair. Pair overrides in the target's file take precedence
// over the canonical route.
package mapping

import (
	"fmt"
	"strings"
)

// Outcome classifies how faithfully a symbol was translated.
type Outcome int

// Outcomes ordered by increasing severity.
const (
	// Exact means the target symbol has the same meaning.
	Exact Outcome = iota
	// Passthrough means the source symbol is unknown and was kept verbatim.
	Passthrough
	// Lossy means the target symbol exists but loses precision or behavior.
	Lossy
	// Unsupported means the target has no equivalent.
	Unsupported
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Exact:
		return "exact"
	case Passthrough:
		return "passthrough"
	case Lossy:
		return "lossy"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is the translation of one type or function name.
type Result struct {
	Outcome Outcome
	// Target is the symbol to emit. Empty for unsupported types, where the
	// caller substitutes the dialect's placeholder type.
	Target string
	// Params are the type parameters to emit with Target.
	Params []string
	// Canonical is the hub symbol the translation went through, if any.
	Canonical string
	// Note explains a lossy, unsupported or passthrough outcome.
	Note string
	// AutoIncrement is set when the source type implies an auto-incrementing
	// column, as SERIAL does.
	AutoIncrement bool
}

// withLossy downgrades the result to Lossy and appends note.
func (r Result) withLossy(note string) Result {
	if r.Outcome < Lossy {
		r.Outcome = Lossy
	}
	if r.Note == "" {
		r.Note = note
	} else {
		r.Note += "; " + note
	}
	return r
}

// UnsupportedFunctionName is the marker emitted for functions with no
// equivalent in the target dialect.
func UnsupportedFunctionName(name string) string {
	return "UNSUPPORTED_" + strings.ToUpper(name)
}

// CanonicalTypes is the hub vocabulary every import entry maps into.
var CanonicalTypes = []string{
	"BOOLEAN", "SMALLINT", "INTEGER", "BIGINT", "DECIMAL", "REAL", "DOUBLE",
	"VARCHAR", "CHAR", "TEXT", "DATE", "TIME", "TIMESTAMP", "TIMESTAMP_TZ",
	"INTERVAL", "BINARY", "UUID", "JSON", "VARIANT",
}

func isCanonicalType(name string) bool {
	for _, t := range CanonicalTypes {
		if t == name {
			return true
		}
	}
	return false
}

// LoadError reports a malformed mapping document.
type LoadError struct {
	Source  string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("mapping %s: %s", e.Source, e.Message)
}
