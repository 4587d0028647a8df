// Package receipts implements the tamper-evident action receipt ledger.
//
// Every receipt is hash-chained to its predecessor: the first link points
// at the "genesis" sentinel, and each receipt's hash covers its
// predecessor's hash, the canonical form of the recorded action, and the
// signature over that action. All chain logic lives in Ledger; stores are
// dumb persistence.
package receipts

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/verity-labs/trustcore/pkg/contracts"
)

// ErrNotFound is returned by stores when no receipt matches the given ID.
var ErrNotFound = errors.New("receipt not found")

// Store persists receipts. Implementations do not validate chain
// integrity; they only read and write what the Ledger hands them.
type Store interface {
	// Append persists a fully built receipt.
	Append(ctx context.Context, r contracts.Receipt) error

	// Get returns the receipt with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (contracts.Receipt, error)

	// List returns receipts matching the filter, ordered oldest first
	// (ascending chain position). Offset and Limit apply after filtering.
	List(ctx context.Context, f contracts.ReceiptFilter) ([]contracts.Receipt, error)

	// Last returns the receipt at the highest chain position, if any.
	Last(ctx context.Context) (contracts.Receipt, bool, error)

	// Count returns the number of persisted receipts.
	Count(ctx context.Context) (uint64, error)
}

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu       sync.RWMutex
	receipts []contracts.Receipt
	byID     map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (s *MemoryStore) Append(ctx context.Context, r contracts.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[r.ID] = len(s.receipts)
	s.receipts = append(s.receipts, r)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (contracts.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Receipt{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return contracts.Receipt{}, ErrNotFound
	}
	return s.receipts[idx], nil
}

func (s *MemoryStore) List(ctx context.Context, f contracts.ReceiptFilter) ([]contracts.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]contracts.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		if f.Matches(r) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ChainPosition < matched[j].ChainPosition
	})
	return paginate(matched, f.Offset, f.Limit), nil
}

func (s *MemoryStore) Last(ctx context.Context) (contracts.Receipt, bool, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Receipt{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.receipts) == 0 {
		return contracts.Receipt{}, false, nil
	}
	return s.receipts[len(s.receipts)-1], true, nil
}

func (s *MemoryStore) Count(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.receipts)), nil
}

func paginate(rs []contracts.Receipt, offset, limit int) []contracts.Receipt {
	if offset > 0 {
		if offset >= len(rs) {
			return []contracts.Receipt{}
		}
		rs = rs[offset:]
	}
	if limit > 0 && limit < len(rs) {
		rs = rs[:limit]
	}
	out := make([]contracts.Receipt, len(rs))
	copy(out, rs)
	return out
}
