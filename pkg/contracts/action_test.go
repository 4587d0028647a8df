package contracts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRecordBuilders(t *testing.T) {
	rec := NewActionRecord(AgentMemory, "memory_add", Success()).
		WithParam("content", "test memory").
		WithEvidence("ev_123").
		InContext("ctx_1")

	assert.Equal(t, AgentMemory, rec.Agent)
	assert.Equal(t, "memory_add", rec.ActionType)
	assert.True(t, rec.Outcome.IsSuccess())
	assert.Equal(t, []string{"ev_123"}, rec.EvidenceIDs)
	assert.Equal(t, "ctx_1", rec.ContextRef)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestActionRecordBuildersDoNotMutateOriginal(t *testing.T) {
	base := NewActionRecord(AgentVision, "vision_capture", Success())
	withParam := base.WithParam("region", "full")

	assert.Empty(t, base.Parameters)
	assert.Equal(t, "full", withParam.Parameters["region"])
}

func TestOutcomeValidate(t *testing.T) {
	assert.NoError(t, Success().Validate())
	assert.NoError(t, SuccessWith(map[string]any{"id": "n1"}).Validate())
	assert.NoError(t, Failure("TIMEOUT", "corpus timed out").Validate())
	assert.NoError(t, Partial(nil, []string{"truncated"}).Validate())

	// Failure without a code is not a valid variant.
	assert.Error(t, ActionOutcome{Status: OutcomeFailure}.Validate())

	// Mixed variants are rejected.
	mixed := ActionOutcome{Status: OutcomeSuccess, ErrorCode: "X"}
	assert.Error(t, mixed.Validate())

	mixed = ActionOutcome{Status: OutcomeFailure, ErrorCode: "X", Warnings: []string{"w"}}
	assert.Error(t, mixed.Validate())

	assert.Error(t, ActionOutcome{Status: "unknown"}.Validate())
}

func TestOutcomeSerializationShape(t *testing.T) {
	raw, err := json.Marshal(Failure("NOT_FOUND", "no such node"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"failure","error_code":"NOT_FOUND","error_message":"no such node"}`, string(raw))

	var back ActionOutcome
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.IsFailure())
}
