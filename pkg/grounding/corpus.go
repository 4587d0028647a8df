// Package grounding scores whether a natural-language claim is supported
// by an agent's own evidence corpus.
//
// The engine owns no state: it is a pure function of (claim, corpus). The
// corpus itself is an opaque collaborator; only the narrow lookup and
// similarity capabilities below are consumed, and the concrete search or
// ranking algorithm behind them is the corpus's business.
package grounding

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Item is one ranked match returned by a corpus.
type Item struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Score     float64        `json:"score"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data,omitempty"`
}

// Corpus is the capability the engine consumes from an agent's evidence
// store. Both operations are read-only and must be safe for concurrent
// callers.
type Corpus interface {
	// Lookup returns items directly matching text, ranked by relevance.
	// An empty result is a normal outcome, not an error.
	Lookup(ctx context.Context, text string) ([]Item, error)

	// Similar returns up to limit items near text regardless of direct
	// match, ranked by similarity. Must be deterministic for identical
	// corpus state and query.
	Similar(ctx context.Context, text string, limit int) ([]Item, error)
}

// MemoryCorpus is an in-process reference Corpus backed by a slice.
// Lookup scores items by token overlap with the query; Similar ranks the
// whole corpus by Jaccard similarity. Ties preserve insertion order.
type MemoryCorpus struct {
	mu    sync.RWMutex
	items []Item
}

// NewMemoryCorpus creates an empty corpus.
func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{}
}

// Add appends an item. A zero CreatedAt is stamped with the current time.
func (c *MemoryCorpus) Add(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	c.items = append(c.items, item)
}

// AddFact is a convenience for plain text items.
func (c *MemoryCorpus) AddFact(id, content string) {
	c.Add(Item{ID: id, Type: "fact", Content: content})
}

// Len returns the number of stored items.
func (c *MemoryCorpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCorpus) Lookup(ctx context.Context, text string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := tokenSet(tokenize(text))

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Item
	for _, item := range c.items {
		overlap := overlapCount(query, tokenSet(tokenize(item.Content)))
		if overlap == 0 {
			continue
		}
		scored := item
		scored.Score = clamp01(float64(overlap) / float64(max(len(query), 1)))
		out = append(out, scored)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (c *MemoryCorpus) Similar(ctx context.Context, text string, limit int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	query := tokenSet(tokenize(text))

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		scored := item
		scored.Score = jaccard(query, tokenSet(tokenize(item.Content)))
		out = append(out, scored)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func overlapCount(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := overlapCount(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
