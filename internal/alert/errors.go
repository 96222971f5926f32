package alert

import (
	"fmt"

	"github.com/linnemanlabs/go-core/xerrors"
)

// ErrNotFound reports a missing subscriber or detection reference.
var ErrNotFound = xerrors.New("not found")

// ValidationError reports malformed ingestion input. Nothing is persisted
// when one is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
