package core

import (
	"sort"

	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Code identifies the class of a translation note or finding.
type Code string

// Codes emitted by the pipeline.
const (
	CodeParseError                Code = "ParseError"
	CodeUnsupportedDialect        Code = "UnsupportedDialect"
	CodeMappingGap                Code = "MappingGap"
	CodeLossyTypeMapping          Code = "LossyTypeMapping"
	CodeLossyFunctionMapping      Code = "LossyFunctionMapping"
	CodeLossyAutoIncrement        Code = "LossyAutoIncrement"
	CodeUnmappedFunction          Code = "UnmappedFunction"
	CodeOperatorRewritten         Code = "OperatorRewritten"
	CodeUnsupportedClause         Code = "UnsupportedClause"
	CodeRewriteProducedInvalidSQL Code = "RewriteProducedInvalidSQL"
	CodeCyclicDependency          Code = "CyclicDependency"
	CodeCyclicQueryDependency     Code = "CyclicQueryDependency"
	CodeColumnNotFound            Code = "ColumnNotFound"
	CodeUnresolvedTable           Code = "UnresolvedTable"
	CodeColumnMismatch            Code = "ColumnMismatch"
	CodeColumnCountMismatch       Code = "ColumnCountMismatch"
	CodeConstraintMismatch        Code = "ConstraintMismatch"
	CodeReferenceMismatch         Code = "ReferenceMismatch"
	CodeTimeout                   Code = "Timeout"
	CodeCancelled                 Code = "Cancelled"
)

// TranslationNote is a machine-recorded observation about one symbol
// substitution made while rewriting an asset.
type TranslationNote struct {
	Severity Severity       `json:"severity"`
	Code     Code           `json:"code"`
	Message  string         `json:"message"`
	Pos      token.Position `json:"location"`
	// Subject names what the note is about: a column, type or function.
	Subject string `json:"subject,omitempty"`
}

// SortNotes orders notes by location, then code, then message.
func SortNotes(notes []TranslationNote) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line < b.Pos.Line
		}
		if a.Pos.Column != b.Pos.Column {
			return a.Pos.Column < b.Pos.Column
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}

// Finding is one entry of a verdict: either a promoted translation note or an
// independently detected problem.
type Finding struct {
	Code     Code           `json:"code"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Pos      token.Position `json:"location"`
	// NoteRef is the code of the translation note this finding promotes,
	// empty when the finding was detected independently.
	NoteRef string `json:"note_ref,omitempty"`
}

// Verdict is the validation outcome for one asset.
type Verdict struct {
	Asset    string    `json:"asset"`
	Kind     AssetKind `json:"kind"`
	Status   Status    `json:"status"`
	Findings []Finding `json:"findings"`
}

// NewVerdict returns a passing verdict with no findings.
func NewVerdict(asset string, kind AssetKind) *Verdict {
	return &Verdict{Asset: asset, Kind: kind, Status: StatusPass, Findings: []Finding{}}
}

// Add appends a finding and folds its severity into the status.
func (v *Verdict) Add(f Finding) {
	v.Findings = append(v.Findings, f)
	v.Status = v.Status.Worse(StatusFor(f.Severity))
}

// Counts tallies verdicts per status.
type Counts struct {
	Pass int `json:"pass"`
	Warn int `json:"warn"`
	Fail int `json:"fail"`
}

// Total returns the number of counted verdicts.
func (c Counts) Total() int {
	return c.Pass + c.Warn + c.Fail
}

// RunSummary aggregates all verdicts of a run. It is built once at the end of
// a run and not modified afterwards.
type RunSummary struct {
	Status     Status     `json:"status"`
	Counts     Counts     `json:"counts"`
	Incomplete bool       `json:"incomplete"`
	Verdicts   []*Verdict `json:"verdicts"`
}

// Summarize folds verdicts into a RunSummary. Verdicts are ordered by asset
// name so the summary does not depend on completion order.
func Summarize(verdicts []*Verdict, incomplete bool) *RunSummary {
	sorted := make([]*Verdict, len(verdicts))
	copy(sorted, verdicts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Asset < sorted[j].Asset
	})

	s := &RunSummary{Status: StatusPass, Incomplete: incomplete, Verdicts: sorted}
	for _, v := range sorted {
		switch v.Status {
		case StatusPass:
			s.Counts.Pass++
		case StatusWarn:
			s.Counts.Warn++
		case StatusFail:
			s.Counts.Fail++
		}
		s.Status = s.Status.Worse(v.Status)
	}
	return s
}
