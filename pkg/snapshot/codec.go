// Package snapshot exports and imports portable context snapshots.
//
// A snapshot carries a canonical JSON payload, a digest of those exact
// bytes, and the format version it was written at. Import re-derives the
// digest from the received bytes and refuses anything that does not
// match; it never trusts the embedded checksum.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/verity-labs/trustcore/pkg/canonicalize"
	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/crypto"
	"github.com/verity-labs/trustcore/pkg/faults"
)

// CurrentFormatVersion is stamped on every exported snapshot.
var CurrentFormatVersion = contracts.NewFormatVersion(1, 0, 0)

// Codec exports agent state into context snapshots and imports them back,
// verifying integrity and format compatibility on the way in.
type Codec struct {
	digest  crypto.Digest
	version contracts.FormatVersion
	clock   func() time.Time
}

// NewCodec creates a codec writing at CurrentFormatVersion.
func NewCodec(digest crypto.Digest) *Codec {
	return &Codec{
		digest:  digest,
		version: CurrentFormatVersion,
		clock:   time.Now,
	}
}

// WithVersion overrides the reader/writer format version. Used in tests
// to simulate version skew.
func (c *Codec) WithVersion(v contracts.FormatVersion) *Codec {
	c.version = v
	return c
}

// WithClock overrides the clock for testing.
func (c *Codec) WithClock(clock func() time.Time) *Codec {
	c.clock = clock
	return c
}

// Export serializes the payload canonically, digests it and wraps both in
// a ContextSnapshot. The summary is carried verbatim; when empty, a short
// description of the payload is generated.
func (c *Codec) Export(agent contracts.AgentType, summary string, payload contracts.SnapshotPayload) (contracts.ContextSnapshot, error) {
	if !agent.Valid() {
		return contracts.ContextSnapshot{}, faults.InvalidInput("unknown agent type %q", agent)
	}
	if err := payload.Validate(); err != nil {
		return contracts.ContextSnapshot{}, faults.InvalidInput("invalid snapshot payload: %v", err)
	}

	raw, err := canonicalize.Marshal(payload)
	if err != nil {
		return contracts.ContextSnapshot{}, faults.InvalidInput("payload is not canonically serializable: %v", err)
	}
	if summary == "" {
		summary = describePayload(payload)
	}
	return contracts.ContextSnapshot{
		SourceAgent:    agent,
		FormatVersion:  c.version,
		ContextSummary: summary,
		Payload:        raw,
		Checksum:       contracts.Checksum(c.digest.Sum(raw)),
		SnapshotAt:     c.clock().UTC(),
	}, nil
}

// Verify recomputes the payload digest and compares it with the embedded
// checksum. It is pure: no state is touched and nothing is decoded.
func (c *Codec) Verify(snap contracts.ContextSnapshot) error {
	sum := contracts.Checksum(c.digest.Sum(snap.Payload))
	if !bytes.Equal(sum[:], snap.Checksum[:]) {
		return faults.Corruption("snapshot payload", sum.String(), snap.Checksum.String())
	}
	return nil
}

// Import gates on format version, verifies the checksum, validates the
// raw payload against the schema for its kind, and only then decodes it
// into typed state. The order matters: an incompatible version is
// reported before any integrity work, and integrity before any parsing.
func (c *Codec) Import(snap contracts.ContextSnapshot) (contracts.SnapshotPayload, error) {
	if err := c.checkVersion(snap.FormatVersion); err != nil {
		return contracts.SnapshotPayload{}, err
	}
	if err := c.Verify(snap); err != nil {
		return contracts.SnapshotPayload{}, err
	}

	var head struct {
		Kind contracts.SnapshotKind `json:"kind"`
	}
	if err := json.Unmarshal(snap.Payload, &head); err != nil {
		return contracts.SnapshotPayload{}, faults.InvalidInput("snapshot payload is not valid JSON: %v", err)
	}
	if err := validatePayloadJSON(head.Kind, snap.Payload); err != nil {
		return contracts.SnapshotPayload{}, faults.InvalidInput("%v", err)
	}

	var payload contracts.SnapshotPayload
	if err := json.Unmarshal(snap.Payload, &payload); err != nil {
		return contracts.SnapshotPayload{}, faults.InvalidInput("decode snapshot payload: %v", err)
	}
	if err := payload.Validate(); err != nil {
		return contracts.SnapshotPayload{}, faults.InvalidInput("invalid snapshot payload: %v", err)
	}
	return payload, nil
}

// checkVersion rejects snapshots written at a newer major version than
// this reader understands.
func (c *Codec) checkVersion(file contracts.FormatVersion) error {
	fileVer, err := semver.NewVersion(file.String())
	if err != nil {
		return faults.InvalidInput("invalid snapshot format version %q: %v", file.String(), err)
	}
	readerVer, err := semver.NewVersion(c.version.String())
	if err != nil {
		return faults.Internal("invalid reader format version %q: %v", c.version.String(), err)
	}
	if fileVer.Major() > readerVer.Major() {
		return faults.VersionIncompatible(file.String(), c.version.String())
	}
	return nil
}

func describePayload(p contracts.SnapshotPayload) string {
	switch p.Kind {
	case contracts.SnapshotSession:
		return fmt.Sprintf("session %q with %d items", p.Session.Name, len(p.Session.Items))
	case contracts.SnapshotWorkspace:
		return fmt.Sprintf("workspace %q with %d items", p.Workspace.Name, len(p.Workspace.Items))
	case contracts.SnapshotLedgerSegment:
		return fmt.Sprintf("ledger segment %d..%d for agent %s", p.Ledger.FromPosition, p.Ledger.ToPosition, p.Ledger.Agent)
	default:
		return string(p.Kind)
	}
}
