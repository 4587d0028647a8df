// Package faults defines the structured error values surfaced at the
// trustcore boundary.
//
// Every error carries a machine-readable code, severity, human message,
// recoverability flag and an optional suggested remedial action, so a
// caller can decide to retry, choose an alternative, or escalate without
// re-deriving the cause from logs.
package faults

import (
	"errors"
	"fmt"
)

// Code is the machine-readable error class.
type Code string

const (
	// CodeNotFound: unknown receipt/context. Recoverable, caller should re-list.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInvalidInput: malformed claim/query/parameters. Recoverable,
	// caller should fix and retry.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeCorruption: checksum or chain-hash mismatch. Not recoverable
	// automatically; trust in the affected object must be halted.
	CodeCorruption Code = "CORRUPTION"

	// CodeInfrastructure: corpus/signer/store unreachable. Recoverable via
	// retry with backoff.
	CodeInfrastructure Code = "INFRASTRUCTURE"

	// CodeVersionIncompatible: snapshot major version newer than reader.
	// Not recoverable without a reader upgrade.
	CodeVersionIncompatible Code = "VERSION_INCOMPATIBLE"

	// CodeInternal: a bug in trustcore itself.
	CodeInternal Code = "INTERNAL"
)

// Severity levels.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// defaultSeverity maps each code to its usual severity.
func (c Code) defaultSeverity() Severity {
	switch c {
	case CodeCorruption, CodeInternal:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// recoverable reports whether errors of this code are typically recoverable.
func (c Code) recoverable() bool {
	switch c {
	case CodeCorruption, CodeVersionIncompatible, CodeInternal:
		return false
	default:
		return true
	}
}

// ActionType categorizes a suggested remedial action.
type ActionType string

const (
	ActionRetry       ActionType = "retry"
	ActionAlternative ActionType = "alternative"
	ActionUserAction  ActionType = "user_action"
)

// SuggestedAction tells the caller what to try next.
type SuggestedAction struct {
	Type         ActionType `json:"type"`
	Description  string     `json:"description,omitempty"`
	RetryAfterMS int        `json:"retry_after_ms,omitempty"`
}

// Fault is the structured error value.
type Fault struct {
	Code        Code             `json:"code"`
	Severity    Severity         `json:"severity"`
	Message     string           `json:"message"`
	Context     map[string]any   `json:"context,omitempty"`
	Recoverable bool             `json:"recoverable"`
	Suggested   *SuggestedAction `json:"suggested_action,omitempty"`

	cause error
}

// New creates a fault with the code's default severity and recoverability.
func New(code Code, format string, args ...any) *Fault {
	return &Fault{
		Code:        code,
		Severity:    code.defaultSeverity(),
		Message:     fmt.Sprintf(format, args...),
		Recoverable: code.recoverable(),
	}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("[%s] %s", f.Code, f.Message)
}

// Unwrap exposes the underlying cause, if any, for errors.Is chains.
func (f *Fault) Unwrap() error {
	return f.cause
}

// WithContext attaches a structured key/value to the fault.
func (f *Fault) WithContext(key string, value any) *Fault {
	if f.Context == nil {
		f.Context = make(map[string]any)
	}
	f.Context[key] = value
	return f
}

// WithCause records the wrapped underlying error.
func (f *Fault) WithCause(err error) *Fault {
	f.cause = err
	return f
}

// WithSuggestion sets the suggested remedial action.
func (f *Fault) WithSuggestion(a SuggestedAction) *Fault {
	f.Suggested = &a
	return f
}

// NotFound builds the standard unknown-resource fault.
func NotFound(resource, id string) *Fault {
	return New(CodeNotFound, "%s %s not found", resource, id).
		WithContext("id", id).
		WithSuggestion(SuggestedAction{
			Type:        ActionAlternative,
			Description: "check the ID or use a list operation to find available items",
		})
}

// InvalidInput builds the malformed-input fault.
func InvalidInput(format string, args ...any) *Fault {
	return New(CodeInvalidInput, format, args...)
}

// Corruption builds the integrity-failure fault. Expected and actual carry
// the diverging digests so the caller can see exactly what failed.
func Corruption(what, expected, actual string) *Fault {
	return New(CodeCorruption, "%s integrity check failed", what).
		WithContext("expected", expected).
		WithContext("actual", actual)
}

// Infrastructure wraps a collaborator failure (corpus, signer, store).
func Infrastructure(what string, err error) *Fault {
	return New(CodeInfrastructure, "%s unavailable: %v", what, err).
		WithCause(err).
		WithSuggestion(SuggestedAction{Type: ActionRetry, RetryAfterMS: 1000})
}

// VersionIncompatible builds the newer-than-reader fault.
func VersionIncompatible(snapshotVersion, readerVersion string) *Fault {
	return New(CodeVersionIncompatible,
		"snapshot format version %s is newer than reader version %s", snapshotVersion, readerVersion).
		WithContext("snapshot_version", snapshotVersion).
		WithContext("reader_version", readerVersion).
		WithSuggestion(SuggestedAction{
			Type:        ActionUserAction,
			Description: "upgrade the reader before importing this snapshot",
		})
}

// Internal builds the bug fault.
func Internal(format string, args ...any) *Fault {
	return New(CodeInternal, format, args...)
}

// HasCode reports whether err is (or wraps) a Fault with the given code.
func HasCode(err error, code Code) bool {
	var f *Fault
	return errors.As(err, &f) && f.Code == code
}

// IsNotFound reports whether err is a not-found fault.
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsInvalidInput reports whether err is an invalid-input fault.
func IsInvalidInput(err error) bool { return HasCode(err, CodeInvalidInput) }

// IsCorruption reports whether err is a corruption fault.
func IsCorruption(err error) bool { return HasCode(err, CodeCorruption) }

// IsInfrastructure reports whether err is an infrastructure fault.
func IsInfrastructure(err error) bool { return HasCode(err, CodeInfrastructure) }

// IsVersionIncompatible reports whether err is a version-incompatible fault.
func IsVersionIncompatible(err error) bool { return HasCode(err, CodeVersionIncompatible) }
