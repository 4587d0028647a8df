package contracts

import "time"

// GenesisHash is the previous_hash of the first receipt in every chain.
const GenesisHash = "genesis"

// Receipt is an immutable, chain-linked record of one performed action.
//
// Invariants:
//   - ChainPosition starts at 1 and increments by exactly 1 per append.
//   - For position n > 1, PreviousHash equals the hash of position n-1;
//     for position 1 it equals GenesisHash.
//   - Hash is a deterministic digest of (previous_hash, canonical action,
//     signature), computed after PreviousHash and Signature are fixed.
type Receipt struct {
	ID            string       `json:"id"`
	Action        ActionRecord `json:"action"`
	Signature     string       `json:"signature"`
	ChainPosition uint64       `json:"chain_position"`
	PreviousHash  string       `json:"previous_hash"`
	Hash          string       `json:"hash"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ActionType is a convenience accessor.
func (r Receipt) ActionType() string {
	return r.Action.ActionType
}

// WasSuccessful reports whether the recorded action succeeded.
func (r Receipt) WasSuccessful() bool {
	return r.Action.Outcome.IsSuccess()
}

// ReceiptFilter selects receipts by conjunction of its set fields. Zero
// values mean "any". Limit and Offset paginate after filtering; results
// preserve ledger order (oldest first).
type ReceiptFilter struct {
	Agent      AgentType     `json:"agent,omitempty"`
	ActionType string        `json:"action_type,omitempty"`
	ContextRef string        `json:"context_ref,omitempty"`
	After      *time.Time    `json:"after,omitempty"`
	Before     *time.Time    `json:"before,omitempty"`
	Outcome    OutcomeStatus `json:"outcome,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	Offset     int           `json:"offset,omitempty"`
}

// Matches reports whether r satisfies every set predicate of the filter.
// Pagination fields are ignored here; they apply after filtering.
func (f ReceiptFilter) Matches(r Receipt) bool {
	if f.Agent != "" && r.Action.Agent != f.Agent {
		return false
	}
	if f.ActionType != "" && r.Action.ActionType != f.ActionType {
		return false
	}
	if f.ContextRef != "" && r.Action.ContextRef != f.ContextRef {
		return false
	}
	if f.After != nil && !r.Action.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !r.Action.Timestamp.Before(*f.Before) {
		return false
	}
	if f.Outcome != "" && r.Action.Outcome.Status != f.Outcome {
		return false
	}
	return true
}
