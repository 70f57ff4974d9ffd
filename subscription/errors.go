package subscription

import (
	"fmt"

	"github.com/arloliu/subpoll/types"
)

// Parse stages reported by ParseError.
const (
	StageEnvelope = "envelope"
	StageMessage  = "message"
)

// ParseError describes a field-level parse failure.
//
// Every ParseError unwraps to either types.ErrFormat or
// types.ErrStructuralViolation, so callers only need errors.Is for control flow
// while Reason keeps the precise diagnosis ("no_tr", "no_m", "no_payload", ...)
// available for logs and metrics.
type ParseError struct {
	Stage  string
	Reason string
	Msg    string
	Kind   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s (%s %s)", e.Kind.Error(), e.Msg, e.Stage, e.Reason)
}

// Unwrap returns the coarse error kind.
func (e *ParseError) Unwrap() error {
	return e.Kind
}

func formatError(stage, reason, msg string) *ParseError {
	return &ParseError{Stage: stage, Reason: reason, Msg: msg, Kind: types.ErrFormat}
}

func structuralError(reason, msg string) *ParseError {
	return &ParseError{Stage: StageMessage, Reason: reason, Msg: msg, Kind: types.ErrStructuralViolation}
}
