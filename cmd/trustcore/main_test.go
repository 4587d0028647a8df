package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verity-labs/trustcore/pkg/contracts"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"trustcore"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUnknownCommand(t *testing.T) {
	code, _, stderr := run(t, "wibble")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command")
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := run(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "trustcore ground")
}

func writeCorpusFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	corpus := `[
		{"id": "fact_1", "type": "fact", "content": "the sky is blue during the day", "score": 1.0},
		{"id": "fact_2", "type": "fact", "content": "water boils at 100 celsius", "score": 0.9}
	]`
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o644))
	return path
}

func TestGroundCommandVerified(t *testing.T) {
	corpus := writeCorpusFile(t)
	code, stdout, _ := run(t, "ground", "--claim", "the sky is blue", "--corpus", corpus)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "verified")
}

func TestGroundCommandUngrounded(t *testing.T) {
	corpus := writeCorpusFile(t)
	code, stdout, _ := run(t, "ground", "--claim", "unicorns invented quantum gravity", "--corpus", corpus)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "ungrounded")
}

func TestGroundCommandJSONOutput(t *testing.T) {
	corpus := writeCorpusFile(t)
	code, stdout, _ := run(t, "ground", "--claim", "the sky is blue", "--corpus", corpus, "--json")
	require.Equal(t, 0, code)

	var result contracts.GroundingResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, contracts.GroundingVerified, result.Status)
	assert.NotEmpty(t, result.Evidence)
}

func TestGroundCommandMissingFlags(t *testing.T) {
	code, _, stderr := run(t, "ground")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "required")
}

func TestReceiptsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRUSTCORE_STORE", "sqlite")
	t.Setenv("TRUSTCORE_SQLITE_PATH", filepath.Join(dir, "receipts.db"))
	t.Setenv("TRUSTCORE_PROFILE_DIR", "")

	code, stdout, stderr := run(t, "receipts", "append",
		"--agent", "memory", "--type", "store_fact",
		"--param", "fact=water boils", "--context", "ctx-a")
	require.Equal(t, 0, code, "append failed: %s", stderr)
	id := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(id, "rcpt_"))

	code, _, stderr = run(t, "receipts", "append",
		"--agent", "vision", "--type", "scan_image")
	require.Equal(t, 0, code, "append failed: %s", stderr)

	code, stdout, _ = run(t, "receipts", "list", "--agent", "memory")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "store_fact")
	assert.NotContains(t, stdout, "scan_image")

	code, stdout, _ = run(t, "receipts", "show", "--id", id)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "store_fact")

	code, stdout, _ = run(t, "receipts", "verify")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Chain OK")
}

func TestReceiptsStatus(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRUSTCORE_STORE", "sqlite")
	t.Setenv("TRUSTCORE_SQLITE_PATH", filepath.Join(dir, "receipts.db"))
	t.Setenv("TRUSTCORE_PROFILE_DIR", "")

	code, stdout, _ := run(t, "receipts", "status")
	require.Equal(t, 0, code)

	var health contracts.HealthStatus
	require.NoError(t, json.Unmarshal([]byte(stdout), &health))
	assert.True(t, health.Healthy)
	assert.Equal(t, contracts.StatusReady, health.Status)
	assert.Contains(t, health.Warnings, "ledger is empty")

	code, _, stderr := run(t, "receipts", "append", "--agent", "memory", "--type", "store_fact")
	require.Equal(t, 0, code, "append failed: %s", stderr)

	code, stdout, _ = run(t, "receipts", "status")
	require.Equal(t, 0, code)
	var after contracts.HealthStatus
	require.NoError(t, json.Unmarshal([]byte(stdout), &after))
	assert.True(t, after.Healthy)
	assert.Empty(t, after.Warnings)
	assert.GreaterOrEqual(t, after.UptimeSeconds, 0.0)
}

func TestReceiptsAppendRejectsSecrets(t *testing.T) {
	t.Setenv("TRUSTCORE_STORE", "memory")
	t.Setenv("TRUSTCORE_PROFILE_DIR", "")

	code, _, stderr := run(t, "receipts", "append",
		"--agent", "memory", "--type", "store_fact",
		"--param", "api_key=sk-live")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "secret")
}

func TestSnapshotExportVerifyImport(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "session.json")
	state := `{
		"id": "sess_1", "name": "review",
		"created_at": "2026-03-01T12:00:00Z", "updated_at": "2026-03-01T13:00:00Z",
		"items": [{"id": "i1", "kind": "note", "content": "hello", "created_at": "2026-03-01T12:30:00Z"}]
	}`
	require.NoError(t, os.WriteFile(statePath, []byte(state), 0o644))
	outPath := filepath.Join(dir, "snap.json")

	code, _, stderr := run(t, "snapshot", "export",
		"--kind", "session", "--agent", "memory",
		"--state", statePath, "--out", outPath)
	require.Equal(t, 0, code, "export failed: %s", stderr)

	code, stdout, _ := run(t, "snapshot", "verify", "--in", outPath)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Snapshot OK")

	code, stdout, _ = run(t, "snapshot", "import", "--in", outPath)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "sess_1")

	// Corrupt one payload byte and re-verify.
	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var snap contracts.ContextSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	snap.Payload[0] ^= 0x01
	tampered, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(outPath, tampered, 0o644))

	code, _, stderr = run(t, "snapshot", "verify", "--in", outPath)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "FAILED")
}
