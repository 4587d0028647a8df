package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Profile is a named operating profile. Profiles tune the knobs that are
// safe to vary per deployment; classification thresholds are fixed in
// code and deliberately absent here.
type Profile struct {
	Name      string          `yaml:"name" json:"name"`
	Grounding GroundingConfig `yaml:"grounding" json:"grounding"`
	Ledger    LedgerConfig    `yaml:"ledger" json:"ledger"`
	Snapshot  SnapshotConfig  `yaml:"snapshot" json:"snapshot"`
}

// GroundingConfig tunes evidence collection.
type GroundingConfig struct {
	SuggestionLimit    int `yaml:"suggestion_limit" json:"suggestion_limit"`
	MaxEvidenceResults int `yaml:"max_evidence_results" json:"max_evidence_results"`
}

// LedgerConfig tunes receipt recording.
type LedgerConfig struct {
	// ExtraForbiddenParamKeys extends the built-in secret key denylist.
	ExtraForbiddenParamKeys []string `yaml:"extra_forbidden_param_keys,omitempty" json:"extra_forbidden_param_keys,omitempty"`
	RequireContextRef       bool     `yaml:"require_context_ref" json:"require_context_ref"`
}

// SnapshotConfig controls which snapshot format versions a deployment
// will import, on top of the built-in major version gate.
type SnapshotConfig struct {
	// AcceptedVersions is a semver constraint, e.g. "<= 1.x" or ">= 0.9".
	// Empty accepts everything the format gate already allows.
	AcceptedVersions string `yaml:"accepted_versions,omitempty" json:"accepted_versions,omitempty"`
}

// AcceptsVersion checks a snapshot format version against the profile's
// constraint. An empty constraint accepts any version.
func (p *Profile) AcceptsVersion(version string) (bool, error) {
	if p.Snapshot.AcceptedVersions == "" {
		return true, nil
	}
	c, err := semver.NewConstraint(p.Snapshot.AcceptedVersions)
	if err != nil {
		return false, fmt.Errorf("invalid accepted_versions %q: %w", p.Snapshot.AcceptedVersions, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", version, err)
	}
	return c.Check(v), nil
}

// LoadProfile loads profile_<name>.yaml from the profiles directory.
func LoadProfile(profilesDir, name string) (*Profile, error) {
	name = strings.ToLower(name)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", name))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", name, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	if profile.Name == "" {
		profile.Name = name
	}
	return &profile, nil
}

// LoadAllProfiles loads every profile_*.yaml in the profiles directory.
func LoadAllProfiles(profilesDir string) (map[string]*Profile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*Profile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var profile Profile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if profile.Name == "" {
			base := filepath.Base(path)
			profile.Name = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}
		profiles[profile.Name] = &profile
	}
	return profiles, nil
}
