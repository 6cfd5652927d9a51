package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrMalformedBox     = errors.New("malformed box")
	ErrSigningRejected  = errors.New("signing rejected by user")
	ErrSigningFailed    = errors.New("signing failed")
	ErrSubmissionFailed = errors.New("submission failed")
	ErrNoTokens         = errors.New("no tokens to burn")
)

// Stage names a call to an external collaborator.
type Stage string

// Pipeline stages that can fail outside the core's control.
const (
	StageFetchBoxes    Stage = "fetch boxes"
	StageChangeAddress Stage = "change address"
	StageHeight        Stage = "current height"
	StageSign          Stage = "sign"
	StageSubmit        Stage = "submit"
	StageTokenInfo     Stage = "token info"
)

// StageError wraps a failure reported by an external collaborator.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ValidationError reports a request field that was rejected before any box
// was touched. It matches ErrInvalidRequest with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidRequest.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// MalformedBoxError reports a wallet box that does not parse into the box
// model. It matches ErrMalformedBox with errors.Is.
type MalformedBoxError struct {
	Index int // Position in the wallet's response.
	Err   error
}

func (e *MalformedBoxError) Error() string {
	return fmt.Sprintf("%s at index %d: %v", ErrMalformedBox, e.Index, e.Err)
}

func (e *MalformedBoxError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedBox.
func (e *MalformedBoxError) Is(target error) bool {
	return target == ErrMalformedBox
}
