package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedDialect is the sentinel matched by UnsupportedDialectError.
var ErrUnsupportedDialect = errors.New("unsupported dialect")

// UnsupportedDialectError reports a dialect name with no registered grammar.
type UnsupportedDialectError struct {
	Name      string
	Available []string
}

func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("unsupported dialect %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrUnsupportedDialect) true.
func (e *UnsupportedDialectError) Is(target error) bool {
	return target == ErrUnsupportedDialect
}
