package contracts

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotKind discriminates the typed snapshot payload variants.
type SnapshotKind string

const (
	SnapshotSession       SnapshotKind = "session"
	SnapshotWorkspace     SnapshotKind = "workspace"
	SnapshotLedgerSegment SnapshotKind = "ledger_segment"
)

// StateItem is one piece of agent state carried inside a session or
// workspace payload.
type StateItem struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Content   string         `json:"content"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SessionState is the payload of a session snapshot: an append-only,
// sequential recording of one agent session.
type SessionState struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Items     []StateItem `json:"items"`
}

// WorkspaceState is the payload of a workspace snapshot: a named,
// switchable working set.
type WorkspaceState struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Active    bool        `json:"active"`
	Items     []StateItem `json:"items"`
}

// LedgerSegment is the payload of a ledger-segment snapshot: a contiguous
// slice of a receipt chain together with its tail hash, so the slice can
// be independently re-verified by the importer.
type LedgerSegment struct {
	Agent        AgentType `json:"agent"`
	FromPosition uint64    `json:"from_position"`
	ToPosition   uint64    `json:"to_position"`
	Receipts     []Receipt `json:"receipts"`
	HeadHash     string    `json:"head_hash"`

	// MerkleRoot covers the receipt link hashes in chain order, so an
	// importer can check inclusion proofs without the full chain.
	MerkleRoot string `json:"merkle_root,omitempty"`
}

// SnapshotPayload is a tagged union: Kind selects which variant pointer is
// populated, and exactly one must be.
type SnapshotPayload struct {
	Kind      SnapshotKind    `json:"kind"`
	Session   *SessionState   `json:"session,omitempty"`
	Workspace *WorkspaceState `json:"workspace,omitempty"`
	Ledger    *LedgerSegment  `json:"ledger,omitempty"`
}

// SessionPayload wraps a session state into a payload.
func SessionPayload(s SessionState) SnapshotPayload {
	return SnapshotPayload{Kind: SnapshotSession, Session: &s}
}

// WorkspacePayload wraps a workspace state into a payload.
func WorkspacePayload(w WorkspaceState) SnapshotPayload {
	return SnapshotPayload{Kind: SnapshotWorkspace, Workspace: &w}
}

// LedgerSegmentPayload wraps a ledger segment into a payload.
func LedgerSegmentPayload(l LedgerSegment) SnapshotPayload {
	return SnapshotPayload{Kind: SnapshotLedgerSegment, Ledger: &l}
}

// Validate enforces the exactly-one-variant invariant.
func (p SnapshotPayload) Validate() error {
	set := 0
	if p.Session != nil {
		set++
	}
	if p.Workspace != nil {
		set++
	}
	if p.Ledger != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("snapshot payload must carry exactly one variant, has %d", set)
	}
	switch p.Kind {
	case SnapshotSession:
		if p.Session == nil {
			return fmt.Errorf("kind %q requires the session variant", p.Kind)
		}
	case SnapshotWorkspace:
		if p.Workspace == nil {
			return fmt.Errorf("kind %q requires the workspace variant", p.Kind)
		}
	case SnapshotLedgerSegment:
		if p.Ledger == nil {
			return fmt.Errorf("kind %q requires the ledger variant", p.Kind)
		}
	default:
		return fmt.Errorf("unknown snapshot kind %q", p.Kind)
	}
	return nil
}

// Checksum is a fixed 32-byte digest, hex-encoded in JSON.
type Checksum [32]byte

func (c Checksum) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(c[:]))
}

func (c *Checksum) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid checksum hex: %w", err)
	}
	if len(raw) != len(c) {
		return fmt.Errorf("invalid checksum length %d", len(raw))
	}
	copy(c[:], raw)
	return nil
}

func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// ContextSnapshot is a portable, checksum-verifiable export of per-agent
// state. It carries no back-reference to its source, so it can safely
// cross agent boundaries.
//
// Payload is the canonical JSON encoding of a SnapshotPayload; it JSON
// round-trips as base64. Checksum must equal the digest of Payload and
// is checked, never assumed, on every import.
type ContextSnapshot struct {
	SourceAgent    AgentType     `json:"source_agent"`
	FormatVersion  FormatVersion `json:"format_version"`
	ContextSummary string        `json:"context_summary"`
	Payload        []byte        `json:"payload"`
	Checksum       Checksum      `json:"checksum"`
	SnapshotAt     time.Time     `json:"snapshot_at"`
}
