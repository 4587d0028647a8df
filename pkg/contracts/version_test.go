package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVersionCanRead(t *testing.T) {
	v1 := NewFormatVersion(1, 0, 0)
	v1_1 := NewFormatVersion(1, 1, 0)
	v2 := NewFormatVersion(2, 0, 0)

	assert.True(t, v1.CanRead(v1_1), "minor bumps stay readable")
	assert.True(t, v2.CanRead(v1), "older majors stay readable")
	assert.False(t, v1.CanRead(v2), "newer majors must be rejected")
}

func TestParseFormatVersion(t *testing.T) {
	v, err := ParseFormatVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, NewFormatVersion(1, 2, 3), v)
	assert.Equal(t, "1.2.3", v.String())

	_, err = ParseFormatVersion("1.2")
	assert.Error(t, err)
	_, err = ParseFormatVersion("1.2.x")
	assert.Error(t, err)
}

func TestReceiptFilterMatches(t *testing.T) {
	rec := NewActionRecord(AgentMemory, "memory_add", Success()).InContext("ctx_9")
	r := Receipt{ID: "rcpt_1", Action: rec, ChainPosition: 1}

	assert.True(t, ReceiptFilter{}.Matches(r))
	assert.True(t, ReceiptFilter{Agent: AgentMemory, ActionType: "memory_add"}.Matches(r))
	assert.False(t, ReceiptFilter{Agent: AgentVision}.Matches(r))
	assert.False(t, ReceiptFilter{ActionType: "memory_delete"}.Matches(r))
	assert.True(t, ReceiptFilter{ContextRef: "ctx_9", Outcome: OutcomeSuccess}.Matches(r))
	assert.False(t, ReceiptFilter{Outcome: OutcomeFailure}.Matches(r))

	before := rec.Timestamp.Add(-1)
	after := rec.Timestamp.Add(1)
	assert.True(t, ReceiptFilter{After: &before, Before: &after}.Matches(r))
	assert.False(t, ReceiptFilter{After: &after}.Matches(r))
}
