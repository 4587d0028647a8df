package grounding

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/faults"
)

// Classification policy. These are policy constants, not incidental
// literals: callers reason about them and tests pin them.
const (
	// VerifiedThreshold: confidence strictly above this is Verified;
	// anything in (0, VerifiedThreshold] is Partial.
	VerifiedThreshold = 0.8

	// DefaultSuggestionLimit bounds the fallback suggestions attached to
	// an ungrounded result.
	DefaultSuggestionLimit = 3

	// DefaultMaxEvidenceResults bounds Evidence when the caller passes a
	// non-positive limit.
	DefaultMaxEvidenceResults = 10

	// summaryLength truncates item content for evidence summaries.
	summaryLength = 120
)

// Engine turns a claim into a classified, scored grounding result by
// querying an evidence corpus. It holds no mutable state and is safe for
// fully parallel use.
type Engine struct {
	agent           contracts.AgentType
	corpus          Corpus
	suggestionLimit int
	clock           func() time.Time
}

// NewEngine creates an engine for one agent's corpus.
func NewEngine(agent contracts.AgentType, corpus Corpus) *Engine {
	return &Engine{
		agent:           agent,
		corpus:          corpus,
		suggestionLimit: DefaultSuggestionLimit,
		clock:           time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// WithSuggestionLimit bounds the suggestions attached to ungrounded
// results. Non-positive limits fall back to the default.
func (e *Engine) WithSuggestionLimit(limit int) *Engine {
	if limit > 0 {
		e.suggestionLimit = limit
	}
	return e
}

// Ground verifies a claim against the corpus.
//
// Absence of evidence is a classification outcome (Ungrounded, confidence
// 0.0), never an error; errors are reserved for corpus failure. The
// confidence of a grounded claim is the maximum single-item coverage
// ratio: the best piece of evidence wins, weakly related items do not
// dilute it.
func (e *Engine) Ground(ctx context.Context, claim string) (contracts.GroundingResult, error) {
	if strings.TrimSpace(claim) == "" {
		return contracts.GroundingResult{}, faults.InvalidInput("claim must not be empty")
	}

	items, err := e.corpus.Lookup(ctx, claim)
	if err != nil {
		return contracts.GroundingResult{}, faults.Infrastructure("evidence corpus", err)
	}

	claimTokens := tokenSet(tokenize(claim))
	if len(claimTokens) == 0 {
		return contracts.GroundingResult{}, faults.InvalidInput("claim %q has no comparable tokens", claim)
	}

	evidence := make([]contracts.GroundingEvidence, 0, len(items))
	best := 0.0
	for _, item := range items {
		coverage := coverageRatio(claimTokens, item.Content)
		if coverage == 0 {
			continue
		}
		if coverage > best {
			best = coverage
		}
		evidence = append(evidence, contracts.GroundingEvidence{
			EvidenceType: item.Type,
			ID:           item.ID,
			Score:        coverage,
			Summary:      summarize(item.Content),
			Data:         item.Data,
		})
	}
	sort.SliceStable(evidence, func(i, j int) bool { return evidence[i].Score > evidence[j].Score })

	now := e.clock().UTC()

	if len(evidence) == 0 {
		suggestions, err := e.suggestionStrings(ctx, claim)
		if err != nil {
			return contracts.GroundingResult{}, err
		}
		return contracts.GroundingResult{
			Status:      contracts.GroundingUngrounded,
			Claim:       claim,
			Confidence:  0.0,
			Evidence:    []contracts.GroundingEvidence{},
			Reason:      "no evidence found for claim",
			Suggestions: suggestions,
			Timestamp:   now,
		}, nil
	}

	status := contracts.GroundingPartial
	reason := fmt.Sprintf("claim partially supported by %d item(s), best coverage %.2f", len(evidence), best)
	if best > VerifiedThreshold {
		status = contracts.GroundingVerified
		reason = fmt.Sprintf("claim supported by %d item(s), best coverage %.2f", len(evidence), best)
	}

	return contracts.GroundingResult{
		Status:     status,
		Claim:      claim,
		Confidence: best,
		Evidence:   evidence,
		Reason:     reason,
		Timestamp:  now,
	}, nil
}

// Evidence returns ranked raw matches for a free-text query, independent
// of any classification. Used for deep inspection.
func (e *Engine) Evidence(ctx context.Context, query string, maxResults int) ([]contracts.EvidenceDetail, error) {
	if strings.TrimSpace(query) == "" {
		return nil, faults.InvalidInput("query must not be empty")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxEvidenceResults
	}

	items, err := e.corpus.Lookup(ctx, query)
	if err != nil {
		return nil, faults.Infrastructure("evidence corpus", err)
	}
	if len(items) > maxResults {
		items = items[:maxResults]
	}

	details := make([]contracts.EvidenceDetail, 0, len(items))
	for _, item := range items {
		details = append(details, contracts.EvidenceDetail{
			EvidenceType: item.Type,
			ID:           item.ID,
			Score:        item.Score,
			CreatedAt:    item.CreatedAt,
			SourceAgent:  e.agent,
			Content:      item.Content,
			Data:         item.Data,
		})
	}
	return details, nil
}

// Suggest returns up to limit recovery hints for a query that failed to
// ground. Deterministic for identical corpus state and query.
func (e *Engine) Suggest(ctx context.Context, query string, limit int) ([]contracts.GroundingSuggestion, error) {
	if strings.TrimSpace(query) == "" {
		return nil, faults.InvalidInput("query must not be empty")
	}
	if limit <= 0 {
		limit = e.suggestionLimit
	}

	items, err := e.corpus.Similar(ctx, query, limit)
	if err != nil {
		return nil, faults.Infrastructure("evidence corpus", err)
	}

	suggestions := make([]contracts.GroundingSuggestion, 0, len(items))
	for _, item := range items {
		suggestions = append(suggestions, contracts.GroundingSuggestion{
			ItemType:       item.Type,
			ID:             item.ID,
			RelevanceScore: item.Score,
			Description:    summarize(item.Content),
			Data:           item.Data,
		})
	}
	return suggestions, nil
}

func (e *Engine) suggestionStrings(ctx context.Context, claim string) ([]string, error) {
	items, err := e.corpus.Similar(ctx, claim, e.suggestionLimit)
	if err != nil {
		return nil, faults.Infrastructure("evidence corpus", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, summarize(item.Content))
	}
	return out, nil
}

// coverageRatio is the share of claim tokens present in the item content,
// clamped to [0,1].
func coverageRatio(claimTokens map[string]struct{}, content string) float64 {
	itemTokens := tokenSet(tokenize(content))
	found := overlapCount(claimTokens, itemTokens)
	return clamp01(float64(found) / float64(len(claimTokens)))
}

func summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= summaryLength {
		return content
	}
	return string(runes[:summaryLength]) + "…"
}
