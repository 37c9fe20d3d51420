package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyChain is returned when a chain has no actions to run.
	ErrEmptyChain = errors.New("an action chain must contain at least one action")

	// ErrInvalidLink is returned when a chain link is neither an action nor a description.
	ErrInvalidLink = errors.New("invalid chain link")

	// ErrSurfaceAction is returned when an action rendering a surface is used as a chain member.
	ErrSurfaceAction = errors.New("actions rendering a surface cannot be used within action chains")

	// ErrUnknownAction is returned by factories that have no constructor for an alias.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidDescription is returned when a description cannot be turned into an action.
	ErrInvalidDescription = errors.New("invalid action description")

	// ErrTransactionClosed is returned when a committed or rolled back transaction is used.
	ErrTransactionClosed = errors.New("transaction is not open")

	// ErrChainNotFound is returned when a catalog has no chain with the requested ID.
	ErrChainNotFound = errors.New("chain not found")
)

// Stable codes reported with configuration errors.
const (
	CodeEmptyChain          = "6U5TRGK"
	CodeInvalidLink         = "6U5TRGK"
	CodeSurfaceAction       = "CHAIN_SURFACE_ACTION"
	CodeUnknownAction       = "CHAIN_UNKNOWN_ACTION"
	CodeInvalidDescription  = "CHAIN_INVALID_DESCRIPTION"
	CodeInvalidResultSource = "CHAIN_INVALID_RESULT_SOURCE"
)

// ConfigError is a static configuration problem detected before any transactional
// side effect. Index is the 0-based position of the offending link, or -1.
type ConfigError struct {
	Code    string
	Index   int
	Type    string // Go type of an invalid link, if any
	Chain   string
	Message string
	Err     error
}

// NewConfigError creates a positional configuration error.
func NewConfigError(code string, index int, err error, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    code,
		Index:   index,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	prefix := "chain configuration error"
	if e.Chain != "" {
		prefix = fmt.Sprintf("chain %q configuration error", e.Chain)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s %s at position %d: %s", prefix, e.Code, e.Index, msg)
	}
	return fmt.Sprintf("%s %s: %s", prefix, e.Code, msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err (or any error it wraps) is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// StepError wraps the failure of a single chain step with its position.
type StepError struct {
	Index  int
	Action string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
