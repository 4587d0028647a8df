package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verity-labs/trustcore/pkg/contracts"
)

func TestRecordWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf)

	err := l.Record(context.Background(), contracts.AgentIdentity, EventAppend,
		"create_receipt", "rcpt_1", map[string]any{"chain_position": 1})
	require.NoError(t, err)

	line := buf.String()
	require.True(t, strings.HasPrefix(line, "AUDIT: "))
	require.True(t, strings.HasSuffix(line, "\n"))

	var event Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "AUDIT: ")), &event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, contracts.AgentIdentity, event.Agent)
	assert.Equal(t, EventAppend, event.Type)
	assert.Equal(t, "rcpt_1", event.Resource)
	assert.EqualValues(t, 1, event.Metadata["chain_position"])
}

func TestRecordHonorsCancelledContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Record(ctx, contracts.AgentMemory, EventVerify, "verify_chain", "ledger", nil)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestNilWriterDefaultsToStdout(t *testing.T) {
	assert.NotNil(t, NewLoggerWithWriter(nil))
}
