package contracts

import "time"

// GroundingStatus classifies the outcome of a grounding check.
type GroundingStatus string

const (
	// GroundingVerified: the claim is fully supported by evidence.
	GroundingVerified GroundingStatus = "verified"

	// GroundingPartial: some aspects of the claim are supported, others not.
	GroundingPartial GroundingStatus = "partial"

	// GroundingUngrounded: no evidence supports the claim. This is a
	// classification outcome, never an error.
	GroundingUngrounded GroundingStatus = "ungrounded"
)

// GroundingResult is the classified, scored outcome of checking one claim.
type GroundingResult struct {
	Status      GroundingStatus     `json:"status"`
	Claim       string              `json:"claim"`
	Confidence  float64             `json:"confidence"`
	Evidence    []GroundingEvidence `json:"evidence"`
	Reason      string              `json:"reason"`
	Suggestions []string            `json:"suggestions,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// StronglyGrounded reports whether the result is verified with high
// confidence.
func (r GroundingResult) StronglyGrounded() bool {
	return r.Status == GroundingVerified && r.Confidence > 0.8
}

// GroundingEvidence is one corpus item that supports (or weakly supports)
// a claim. Ordering within a result is descending by score, ties broken by
// corpus-native order.
type GroundingEvidence struct {
	EvidenceType string         `json:"evidence_type"`
	ID           string         `json:"id"`
	Score        float64        `json:"score"`
	Summary      string         `json:"summary"`
	Data         map[string]any `json:"data,omitempty"`
}

// EvidenceDetail is the richer sibling of GroundingEvidence returned by
// the detail-lookup operation: raw ranked matches with full content and no
// confidence classification.
type EvidenceDetail struct {
	EvidenceType string         `json:"evidence_type"`
	ID           string         `json:"id"`
	Score        float64        `json:"score"`
	CreatedAt    time.Time      `json:"created_at"`
	SourceAgent  AgentType      `json:"source_agent"`
	Content      string         `json:"content"`
	Data         map[string]any `json:"data,omitempty"`
}

// GroundingSuggestion is a recovery hint returned only after an ungrounded
// claim. Suggestions are not proof and must never be conflated with
// evidence.
type GroundingSuggestion struct {
	ItemType       string         `json:"item_type"`
	ID             string         `json:"id"`
	RelevanceScore float64        `json:"relevance_score"`
	Description    string         `json:"description"`
	Data           map[string]any `json:"data,omitempty"`
}
