// Package evidence provides a content-addressed evidence registry.
// Registered items get stable IDs that action records can reference, and
// every item carries a digest of its content so later reads can prove
// the content has not drifted.
package evidence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/crypto"
	"github.com/verity-labs/trustcore/pkg/faults"
	"github.com/verity-labs/trustcore/pkg/grounding"
)

// Record is one registered piece of evidence.
type Record struct {
	ID          string              `json:"id"`
	Kind        string              `json:"kind"`
	Content     string              `json:"content"`
	Data        map[string]any      `json:"data,omitempty"`
	ContentHash string              `json:"content_hash"`
	SourceAgent contracts.AgentType `json:"source_agent"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Registry stores evidence records and exposes them as a grounding
// corpus, so claims can be checked directly against registered evidence.
type Registry struct {
	mu      sync.RWMutex
	digest  crypto.Digest
	clock   func() time.Time
	records map[string]Record
	corpus  *grounding.MemoryCorpus
}

// NewRegistry creates an empty registry.
func NewRegistry(digest crypto.Digest) *Registry {
	return &Registry{
		digest:  digest,
		clock:   time.Now,
		records: make(map[string]Record),
		corpus:  grounding.NewMemoryCorpus(),
	}
}

// WithClock overrides the clock for deterministic testing.
func (r *Registry) WithClock(clock func() time.Time) *Registry {
	r.clock = clock
	return r
}

// Register stores a new evidence record and returns it with its assigned
// ID and content hash.
func (r *Registry) Register(ctx context.Context, agent contracts.AgentType, kind, content string, data map[string]any) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if !agent.Valid() {
		return Record{}, faults.InvalidInput("unknown agent type %q", agent)
	}
	if kind == "" || content == "" {
		return Record{}, faults.InvalidInput("evidence kind and content must not be empty")
	}

	record := Record{
		ID:          "ev_" + uuid.NewString(),
		Kind:        kind,
		Content:     content,
		Data:        data,
		ContentHash: crypto.SumHex(r.digest, []byte(content)),
		SourceAgent: agent,
		CreatedAt:   r.clock().UTC(),
	}

	r.mu.Lock()
	r.records[record.ID] = record
	r.mu.Unlock()

	r.corpus.Add(grounding.Item{
		ID:        record.ID,
		Type:      record.Kind,
		Content:   record.Content,
		Score:     1.0,
		CreatedAt: record.CreatedAt,
		Data:      record.Data,
	})
	return record, nil
}

// Get returns the record with the given ID.
func (r *Registry) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return Record{}, faults.NotFound("evidence", id)
	}
	return record, nil
}

// Verify recomputes the content hash of a stored record. A mismatch
// reports corruption, distinct from the record not existing.
func (r *Registry) Verify(ctx context.Context, id string) error {
	record, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	expected := crypto.SumHex(r.digest, []byte(record.Content))
	if expected != record.ContentHash {
		return faults.Corruption("evidence "+id, expected, record.ContentHash)
	}
	return nil
}

// Len returns the number of registered records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Corpus exposes the registry as a grounding corpus.
func (r *Registry) Corpus() grounding.Corpus {
	return r.corpus
}
