// Package validate decides whether a translated asset still means what the
// legacy asset meant.
//
// Validation runs a fixed sequence of checks and records findings in that
// order: round-trip parseability, structural equivalence, reference
// resolution, then promotion of the rewriter's notes. Only the items of the
// documented checklist are compared. Each asset is validated on its own; a
// problem in one asset never affects another asset's verdict.
package validate

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapmigrate/internal/lineage"
	"github.com/leapstack-labs/leapmigrate/internal/rewrite"
	"github.com/leapstack-labs/leapmigrate/pkg/catalog"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/token"
)

// Oracle is a second grammar that must also accept translated SQL.
type Oracle interface {
	Check(sql string) error
}

// Config configures a Validator.
type Config struct {
	// Oracle, when set, is consulted after the target grammar accepts the
	// translated text.
	Oracle Oracle
	Logger *slog.Logger
}

// Validator builds verdicts. It is safe for concurrent use.
type Validator struct {
	catalog *catalog.Catalog
	oracle  Oracle
	logger  *slog.Logger
}

// New returns a Validator.
func New(cat *catalog.Catalog, cfg Config) *Validator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{catalog: cat, oracle: cfg.Oracle, logger: logger}
}

// Input is everything known about one asset when it is validated.
type Input struct {
	Asset *core.Asset
	// Source is the parsed legacy statement; nil when parsing failed.
	Source core.Stmt
	// Translation is nil when the asset was never rewritten.
	Translation *rewrite.Result
	// Schema holds the legacy tables used for reference resolution.
	Schema *lineage.Schema
	// Unresolved lists the table keys the asset reads that match no asset.
	Unresolved []string
	// Findings are asset-scoped findings from earlier phases, such as
	// ParseError or CyclicDependency. They lead the verdict.
	Findings []core.Finding
}

// Validate builds the verdict of one asset.
func (v *Validator) Validate(in Input) *core.Verdict {
	verdict := core.NewVerdict(in.Asset.Name, in.Asset.Kind)
	for _, f := range in.Findings {
		verdict.Add(f)
	}
	if in.Source == nil || in.Translation == nil {
		return verdict
	}

	c := &check{v: v, in: in, verdict: verdict}
	if target, ok := c.roundTrip(); ok {
		c.structure(target)
		c.references()
	}
	c.promoteNotes()

	v.logger.Debug("asset validated",
		slog.String("asset", in.Asset.Name),
		slog.String("status", verdict.Status.String()),
		slog.Int("findings", len(verdict.Findings)))
	return verdict
}

// Interrupted returns the verdict of an asset whose work did not finish.
// code is Timeout or Cancelled.
func Interrupted(asset *core.Asset, prior []core.Finding, code core.Code, msg string) *core.Verdict {
	verdict := core.NewVerdict(asset.Name, asset.Kind)
	for _, f := range prior {
		verdict.Add(f)
	}
	verdict.Add(core.Finding{
		Code:     code,
		Severity: core.SeverityError,
		Message:  msg,
		Pos:      token.Position{Line: 1, Column: 1},
	})
	return verdict
}

// check carries the state of one Validate call.
type check struct {
	v       *Validator
	in      Input
	verdict *core.Verdict
}

func (c *check) fail(code core.Code, pos token.Position, msg string) {
	c.verdict.Add(core.Finding{Code: code, Severity: core.SeverityError, Message: msg, Pos: pos})
}

// mismatch records a structural difference. It is a warning when an error
// note already explains it, a failure otherwise.
func (c *check) mismatch(code core.Code, pos token.Position, subject, msg string) {
	sev := core.SeverityError
	if c.explained(pos, subject) {
		sev = core.SeverityWarning
		msg += " (explained by a translation note)"
	}
	c.verdict.Add(core.Finding{Code: code, Severity: sev, Message: msg, Pos: pos})
}

func (c *check) explained(pos token.Position, subject string) bool {
	for _, n := range c.in.Translation.Notes {
		if n.Severity != core.SeverityError {
			continue
		}
		if n.Code != core.CodeMappingGap && n.Code != core.CodeUnsupportedClause {
			continue
		}
		if n.Pos == pos && pos.Line > 0 {
			return true
		}
		if subject != "" && strings.EqualFold(n.Subject, subject) {
			return true
		}
	}
	return false
}

// roundTrip re-parses the translated text with the target grammar.
func (c *check) roundTrip() (core.Stmt, bool) {
	tr := c.in.Translation
	target, err := c.v.catalog.ParseStatement(tr.SQL, tr.TargetDialect)
	if err != nil {
		c.fail(core.CodeRewriteProducedInvalidSQL, lineage.ErrorPosition(err),
			"translated SQL does not parse as "+tr.TargetDialect+": "+lineage.ErrorMessage(err))
		return nil, false
	}
	if c.v.oracle != nil {
		if err := c.v.oracle.Check(tr.SQL); err != nil {
			c.fail(core.CodeRewriteProducedInvalidSQL, token.Position{Line: 1, Column: 1},
				"translated SQL rejected by the PostgreSQL parser: "+err.Error())
			return nil, false
		}
	}
	return target, true
}

// promoteNotes turns every translation note into a finding that refers back
// to it.
func (c *check) promoteNotes() {
	for _, n := range c.in.Translation.Notes {
		c.verdict.Add(core.Finding{
			Code:     n.Code,
			Severity: n.Severity,
			Message:  n.Message,
			Pos:      n.Pos,
			NoteRef:  string(n.Code),
		})
	}
}
