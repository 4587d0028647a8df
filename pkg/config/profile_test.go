package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strictProfile = `
name: strict
grounding:
  suggestion_limit: 5
  max_evidence_results: 20
ledger:
  extra_forbidden_param_keys: [ssh_key]
  require_context_ref: true
snapshot:
  accepted_versions: ">= 1.0, < 2.0"
`

func writeProfile(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, "profile_"+name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "strict", strictProfile)

	p, err := LoadProfile(dir, "STRICT")
	require.NoError(t, err)
	assert.Equal(t, "strict", p.Name)
	assert.Equal(t, 5, p.Grounding.SuggestionLimit)
	assert.Equal(t, 20, p.Grounding.MaxEvidenceResults)
	assert.True(t, p.Ledger.RequireContextRef)
	assert.Equal(t, []string{"ssh_key"}, p.Ledger.ExtraForbiddenParamKeys)
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := LoadProfile(t.TempDir(), "ghost")
	assert.Error(t, err)
}

func TestLoadAllProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "strict", strictProfile)
	writeProfile(t, dir, "lab", "grounding:\n  suggestion_limit: 1\n")

	profiles, err := LoadAllProfiles(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "lab", profiles["lab"].Name)
	assert.Equal(t, 1, profiles["lab"].Grounding.SuggestionLimit)
}

func TestAcceptsVersion(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "strict", strictProfile)
	p, err := LoadProfile(dir, "strict")
	require.NoError(t, err)

	ok, err := p.AcceptsVersion("1.2.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.AcceptsVersion("2.0.0")
	require.NoError(t, err)
	assert.False(t, ok)

	open := &Profile{}
	ok, err = open.AcceptsVersion("9.9.9")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = p.AcceptsVersion("not-a-version")
	assert.Error(t, err)
}
