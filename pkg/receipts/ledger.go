package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verity-labs/trustcore/pkg/audit"
	"github.com/verity-labs/trustcore/pkg/canonicalize"
	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/crypto"
	"github.com/verity-labs/trustcore/pkg/faults"
	"github.com/verity-labs/trustcore/pkg/merkle"
)

// forbiddenParamKeys are substrings that mark an action parameter as
// sensitive material that must never be persisted in a receipt.
var forbiddenParamKeys = []string{
	"password", "secret", "token", "api_key", "apikey", "credential", "private_key",
}

// Ledger is the single mutation path for the receipt chain. Appends are
// serialized under mu so chain positions are assigned without gaps and
// each receipt links to the true predecessor. Reads go straight to the
// store and only ever observe fully built receipts.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	signer   crypto.Signer
	digest   crypto.Digest
	auditLog audit.Logger
	clock    func() time.Time

	extraForbidden    []string
	requireContextRef bool
}

// NewLedger creates a ledger over the given store.
func NewLedger(store Store, signer crypto.Signer, digest crypto.Digest) *Ledger {
	return &Ledger{
		store:    store,
		signer:   signer,
		digest:   digest,
		auditLog: audit.Nop{},
		clock:    time.Now,
	}
}

// WithAudit routes append and verify events to the given audit logger.
func (l *Ledger) WithAudit(logger audit.Logger) *Ledger {
	if logger != nil {
		l.auditLog = logger
	}
	return l
}

// WithClock overrides the clock for testing.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// WithValidation tightens action validation beyond the built-in rules:
// extraForbiddenKeys extends the secret parameter denylist, and
// requireContextRef makes a context reference mandatory.
func (l *Ledger) WithValidation(extraForbiddenKeys []string, requireContextRef bool) *Ledger {
	l.extraForbidden = extraForbiddenKeys
	l.requireContextRef = requireContextRef
	return l
}

// Append validates the action, signs it, links it to the current chain
// head and persists the resulting receipt. It returns the new receipt's
// ID. On any failure no chain position is consumed.
func (l *Ledger) Append(ctx context.Context, action contracts.ActionRecord) (string, error) {
	if err := l.validateAction(action); err != nil {
		return "", err
	}
	if action.Timestamp.IsZero() {
		action.Timestamp = l.clock().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prevHash := contracts.GenesisHash
	position := uint64(1)
	last, ok, err := l.store.Last(ctx)
	if err != nil {
		return "", faults.Infrastructure("read chain head", err)
	}
	if ok {
		prevHash = last.Hash
		position = last.ChainPosition + 1
	}

	actionBytes, err := canonicalize.Marshal(action)
	if err != nil {
		return "", faults.InvalidInput("action is not canonically serializable: %v", err)
	}
	signature, err := l.signer.Sign(actionBytes)
	if err != nil {
		return "", faults.Infrastructure("sign action", err)
	}
	hash, err := receiptHash(l.digest, prevHash, actionBytes, signature)
	if err != nil {
		return "", faults.Internal("hash receipt: %v", err)
	}

	receipt := contracts.Receipt{
		ID:            "rcpt_" + uuid.NewString(),
		Action:        action,
		Signature:     signature,
		ChainPosition: position,
		PreviousHash:  prevHash,
		Hash:          hash,
		CreatedAt:     l.clock().UTC(),
	}
	if err := l.store.Append(ctx, receipt); err != nil {
		return "", faults.Infrastructure("persist receipt", err)
	}

	_ = l.auditLog.Record(ctx, action.Agent, audit.EventAppend, action.ActionType, receipt.ID, map[string]any{
		"chain_position": receipt.ChainPosition,
		"hash":           receipt.Hash,
	})
	return receipt.ID, nil
}

// Get returns the receipt with the given ID after checking its own link
// integrity. A receipt whose stored hash does not match a recomputation
// from its stored fields reports corruption, which is distinct from the
// receipt simply not existing.
func (l *Ledger) Get(ctx context.Context, id string) (contracts.Receipt, error) {
	r, err := l.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return contracts.Receipt{}, faults.NotFound("receipt", id)
		}
		return contracts.Receipt{}, faults.Infrastructure("read receipt", err)
	}
	expected, err := expectedHash(l.digest, r)
	if err != nil {
		return contracts.Receipt{}, faults.Internal("hash receipt: %v", err)
	}
	if expected != r.Hash {
		return contracts.Receipt{}, faults.Corruption(
			fmt.Sprintf("receipt %s at position %d", r.ID, r.ChainPosition), expected, r.Hash)
	}
	return r, nil
}

// List returns receipts matching every field set on the filter, oldest
// first. Offset and Limit apply after filtering.
func (l *Ledger) List(ctx context.Context, f contracts.ReceiptFilter) ([]contracts.Receipt, error) {
	rs, err := l.store.List(ctx, f)
	if err != nil {
		return nil, faults.Infrastructure("list receipts", err)
	}
	if rs == nil {
		rs = []contracts.Receipt{}
	}
	return rs, nil
}

// Head returns the hash of the most recent receipt, or the genesis
// sentinel for an empty chain.
func (l *Ledger) Head(ctx context.Context) (string, error) {
	last, ok, err := l.store.Last(ctx)
	if err != nil {
		return "", faults.Infrastructure("read chain head", err)
	}
	if !ok {
		return contracts.GenesisHash, nil
	}
	return last.Hash, nil
}

// VerifyChain walks the whole chain from genesis, recomputing every
// link. It returns the head hash on success so callers can compare it
// against a trusted checkpoint. The first broken link reports
// corruption with the offending position.
func (l *Ledger) VerifyChain(ctx context.Context) (string, error) {
	rs, err := l.store.List(ctx, contracts.ReceiptFilter{})
	if err != nil {
		return "", faults.Infrastructure("list receipts", err)
	}

	prevHash := contracts.GenesisHash
	for i, r := range rs {
		wantPos := uint64(i) + 1
		if r.ChainPosition != wantPos {
			return "", faults.Corruption(
				fmt.Sprintf("receipt %s chain position", r.ID),
				fmt.Sprintf("%d", wantPos), fmt.Sprintf("%d", r.ChainPosition))
		}
		if r.PreviousHash != prevHash {
			return "", faults.Corruption(
				fmt.Sprintf("receipt %s at position %d previous link", r.ID, r.ChainPosition),
				prevHash, r.PreviousHash)
		}
		expected, err := expectedHash(l.digest, r)
		if err != nil {
			return "", faults.Internal("hash receipt: %v", err)
		}
		if expected != r.Hash {
			return "", faults.Corruption(
				fmt.Sprintf("receipt %s at position %d", r.ID, r.ChainPosition),
				expected, r.Hash)
		}
		prevHash = r.Hash
	}

	_ = l.auditLog.Record(ctx, contracts.AgentContract, audit.EventVerify, "verify_chain", prevHash, map[string]any{
		"length": len(rs),
	})
	return prevHash, nil
}

// Segment cuts a verified contiguous slice of the chain for export. The
// slice carries its own tail hash so an importer can re-verify it without
// access to this store.
func (l *Ledger) Segment(ctx context.Context, agent contracts.AgentType, from, to uint64) (contracts.LedgerSegment, error) {
	if from == 0 || to < from {
		return contracts.LedgerSegment{}, faults.InvalidInput("invalid segment range %d..%d", from, to)
	}
	rs, err := l.store.List(ctx, contracts.ReceiptFilter{})
	if err != nil {
		return contracts.LedgerSegment{}, faults.Infrastructure("list receipts", err)
	}
	if to > uint64(len(rs)) {
		return contracts.LedgerSegment{}, faults.NotFound("chain position", fmt.Sprintf("%d", to))
	}

	segment := make([]contracts.Receipt, 0, to-from+1)
	for _, r := range rs[from-1 : to] {
		expected, err := expectedHash(l.digest, r)
		if err != nil {
			return contracts.LedgerSegment{}, faults.Internal("hash receipt: %v", err)
		}
		if expected != r.Hash {
			return contracts.LedgerSegment{}, faults.Corruption(
				fmt.Sprintf("receipt %s at position %d", r.ID, r.ChainPosition),
				expected, r.Hash)
		}
		segment = append(segment, r)
	}
	tree, err := merkle.BuildReceiptTree(l.digest, segment)
	if err != nil {
		return contracts.LedgerSegment{}, faults.Internal("build segment tree: %v", err)
	}
	return contracts.LedgerSegment{
		Agent:        agent,
		FromPosition: from,
		ToPosition:   to,
		Receipts:     segment,
		HeadHash:     segment[len(segment)-1].Hash,
		MerkleRoot:   tree.Root(),
	}, nil
}

func (l *Ledger) validateAction(action contracts.ActionRecord) error {
	if !action.Agent.Valid() {
		return faults.InvalidInput("unknown agent type %q", action.Agent)
	}
	if strings.TrimSpace(action.ActionType) == "" {
		return faults.InvalidInput("action type must not be empty")
	}
	if err := action.Outcome.Validate(); err != nil {
		return err
	}
	if l.requireContextRef && action.ContextRef == "" {
		return faults.InvalidInput("action must carry a context reference")
	}
	for key := range action.Parameters {
		lower := strings.ToLower(key)
		for _, forbidden := range forbiddenParamKeys {
			if strings.Contains(lower, forbidden) {
				return faults.InvalidInput("parameter %q looks like secret material and cannot be recorded", key)
			}
		}
		for _, forbidden := range l.extraForbidden {
			if strings.Contains(lower, strings.ToLower(forbidden)) {
				return faults.InvalidInput("parameter %q looks like secret material and cannot be recorded", key)
			}
		}
	}
	return nil
}

// receiptHash computes the link hash over the predecessor hash, the
// canonical action bytes and the signature.
func receiptHash(d crypto.Digest, prevHash string, actionBytes []byte, signature string) (string, error) {
	input := struct {
		Prev      string          `json:"prev"`
		Action    json.RawMessage `json:"action"`
		Signature string          `json:"signature"`
	}{prevHash, actionBytes, signature}

	raw, err := canonicalize.Marshal(input)
	if err != nil {
		return "", err
	}
	return crypto.FormatSum(d, d.Sum(raw)), nil
}

func expectedHash(d crypto.Digest, r contracts.Receipt) (string, error) {
	actionBytes, err := canonicalize.Marshal(r.Action)
	if err != nil {
		return "", err
	}
	return receiptHash(d, r.PreviousHash, actionBytes, r.Signature)
}
