package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Severity
// =============================================================================

// Severity indicates the importance of a translation note or finding.
type Severity int

// Severity levels, most severe first.
const (
	// SeverityError marks a translation that needs human follow-up.
	SeverityError Severity = iota
	// SeverityWarning marks an applied but lossy translation.
	SeverityWarning
	// SeverityInfo marks an informational observation.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warn"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityWarning and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError, true
	case "warn", "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityWarning, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, ok := ParseSeverity(string(b))
	if !ok {
		return fmt.Errorf("unknown severity %q", string(b))
	}
	*s = v
	return nil
}

// =============================================================================
// Status
// =============================================================================

// Status is the pass/warn/fail outcome of validating one asset or a run.
type Status int

// Statuses ordered by increasing severity so the worst of two is the max.
const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Worse returns the more severe of two statuses.
func (s Status) Worse(o Status) Status {
	if o > s {
		return o
	}
	return s
}

// StatusFor maps a severity to the verdict status it promotes to.
func StatusFor(sev Severity) Status {
	switch sev {
	case SeverityError:
		return StatusFail
	case SeverityWarning:
		return StatusWarn
	default:
		return StatusPass
	}
}

// ParseStatus converts "pass", "warn" or "fail" to a Status.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(s) {
	case "pass":
		return StatusPass, true
	case "warn":
		return StatusWarn, true
	case "fail":
		return StatusFail, true
	default:
		return StatusPass, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, ok := ParseStatus(string(b))
	if !ok {
		return fmt.Errorf("unknown status %q", string(b))
	}
	*s = v
	return nil
}
