package contracts

import (
	"fmt"
	"time"
)

// OutcomeStatus discriminates the ActionOutcome variants.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	OutcomePartial OutcomeStatus = "partial"
)

// ActionOutcome is a tagged variant: exactly one of success, failure or
// partial is active, discriminated by Status.
type ActionOutcome struct {
	Status OutcomeStatus `json:"status"`

	// Result is present on success and partial outcomes only.
	Result map[string]any `json:"result,omitempty"`

	// ErrorCode and ErrorMessage are present on failure outcomes only.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Warnings are present on partial outcomes only.
	Warnings []string `json:"warnings,omitempty"`
}

// Success builds a success outcome without a result payload.
func Success() ActionOutcome {
	return ActionOutcome{Status: OutcomeSuccess}
}

// SuccessWith builds a success outcome carrying a result payload.
func SuccessWith(result map[string]any) ActionOutcome {
	return ActionOutcome{Status: OutcomeSuccess, Result: result}
}

// Failure builds a failure outcome.
func Failure(code, message string) ActionOutcome {
	return ActionOutcome{Status: OutcomeFailure, ErrorCode: code, ErrorMessage: message}
}

// Partial builds a partial outcome.
func Partial(result map[string]any, warnings []string) ActionOutcome {
	return ActionOutcome{Status: OutcomePartial, Result: result, Warnings: warnings}
}

// IsSuccess reports whether the success variant is active.
func (o ActionOutcome) IsSuccess() bool { return o.Status == OutcomeSuccess }

// IsFailure reports whether the failure variant is active.
func (o ActionOutcome) IsFailure() bool { return o.Status == OutcomeFailure }

// Validate enforces the exactly-one-variant invariant.
func (o ActionOutcome) Validate() error {
	switch o.Status {
	case OutcomeSuccess:
		if o.ErrorCode != "" || o.ErrorMessage != "" || len(o.Warnings) > 0 {
			return fmt.Errorf("success outcome must not carry failure or partial fields")
		}
	case OutcomeFailure:
		if o.ErrorCode == "" {
			return fmt.Errorf("failure outcome requires an error_code")
		}
		if o.Result != nil || len(o.Warnings) > 0 {
			return fmt.Errorf("failure outcome must not carry a result or warnings")
		}
	case OutcomePartial:
		if o.ErrorCode != "" || o.ErrorMessage != "" {
			return fmt.Errorf("partial outcome must not carry failure fields")
		}
	default:
		return fmt.Errorf("unknown outcome status %q", o.Status)
	}
	return nil
}

// ActionRecord describes one performed, auditable action. Records are
// created once and are immutable thereafter; the ledger signs and chains
// them into receipts.
type ActionRecord struct {
	// Agent that performed the action.
	Agent AgentType `json:"agent"`

	// ActionType names what was done, e.g. "memory_add".
	ActionType string `json:"action_type"`

	// Parameters are sanitized inputs. Secrets must never appear here;
	// the ledger rejects records whose parameter keys look secret-bearing.
	Parameters map[string]any `json:"parameters,omitempty"`

	Outcome ActionOutcome `json:"outcome"`

	// EvidenceIDs point at the evidence the action relied on.
	EvidenceIDs []string `json:"evidence_ids,omitempty"`

	// ContextRef optionally names the session or workspace the action
	// happened in.
	ContextRef string `json:"context_ref,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewActionRecord builds a record stamped with the current time.
func NewActionRecord(agent AgentType, actionType string, outcome ActionOutcome) ActionRecord {
	return ActionRecord{
		Agent:      agent,
		ActionType: actionType,
		Outcome:    outcome,
		Timestamp:  time.Now().UTC(),
	}
}

// WithParam returns a copy of the record with one parameter added.
func (a ActionRecord) WithParam(key string, value any) ActionRecord {
	params := make(map[string]any, len(a.Parameters)+1)
	for k, v := range a.Parameters {
		params[k] = v
	}
	params[key] = value
	a.Parameters = params
	return a
}

// WithEvidence returns a copy of the record with an evidence pointer added.
func (a ActionRecord) WithEvidence(evidenceID string) ActionRecord {
	ids := make([]string, 0, len(a.EvidenceIDs)+1)
	ids = append(ids, a.EvidenceIDs...)
	ids = append(ids, evidenceID)
	a.EvidenceIDs = ids
	return a
}

// InContext returns a copy of the record bound to a context reference.
func (a ActionRecord) InContext(contextRef string) ActionRecord {
	a.ContextRef = contextRef
	return a
}
