package grounding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/faults"
)

func skyCorpus() *MemoryCorpus {
	c := NewMemoryCorpus()
	c.AddFact("node_1", "the sky is blue today")
	return c
}

func TestGroundVerified(t *testing.T) {
	engine := NewEngine(contracts.AgentMemory, skyCorpus())

	result, err := engine.Ground(context.Background(), "sky is blue")
	require.NoError(t, err)

	assert.Equal(t, contracts.GroundingVerified, result.Status)
	assert.GreaterOrEqual(t, result.Confidence, 0.8)
	require.Len(t, result.Evidence, 1)
	assert.Equal(t, "node_1", result.Evidence[0].ID)
	assert.Empty(t, result.Suggestions)
	assert.True(t, result.StronglyGrounded())
}

func TestGroundUngrounded(t *testing.T) {
	engine := NewEngine(contracts.AgentMemory, skyCorpus())

	result, err := engine.Ground(context.Background(), "cats can teleport")
	require.NoError(t, err, "missing evidence is a classification, not an error")

	assert.Equal(t, contracts.GroundingUngrounded, result.Status)
	assert.Equal(t, 0.0, result.Confidence)
	assert.NotNil(t, result.Evidence)
	assert.Empty(t, result.Evidence)
	assert.NotEmpty(t, result.Reason)
	assert.LessOrEqual(t, len(result.Suggestions), DefaultSuggestionLimit)
	assert.NotEmpty(t, result.Suggestions, "corpus-derived recovery hints expected")
}

func TestGroundPartial(t *testing.T) {
	engine := NewEngine(contracts.AgentMemory, skyCorpus())

	result, err := engine.Ground(context.Background(), "sky is green today")
	require.NoError(t, err)

	assert.Equal(t, contracts.GroundingPartial, result.Status)
	assert.Greater(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, VerifiedThreshold)
	assert.Len(t, result.Evidence, 1)
}

func TestGroundConfidenceIsBestSingleItem(t *testing.T) {
	c := NewMemoryCorpus()
	c.AddFact("weak_1", "blue pigment exists")
	c.AddFact("strong", "the sky is blue today")
	c.AddFact("weak_2", "the sky darkens at night")
	engine := NewEngine(contracts.AgentMemory, c)

	result, err := engine.Ground(context.Background(), "sky is blue")
	require.NoError(t, err)

	// One strongly supporting item dominates; weak items do not average
	// the confidence down.
	assert.Equal(t, contracts.GroundingVerified, result.Status)
	assert.Equal(t, 1.0, result.Confidence)
	require.NotEmpty(t, result.Evidence)
	assert.Equal(t, "strong", result.Evidence[0].ID, "evidence ordered by descending score")
}

func TestGroundEmptyClaim(t *testing.T) {
	engine := NewEngine(contracts.AgentMemory, skyCorpus())

	_, err := engine.Ground(context.Background(), "   ")
	assert.True(t, faults.IsInvalidInput(err))
}

type failingCorpus struct{}

func (failingCorpus) Lookup(context.Context, string) ([]Item, error) {
	return nil, errors.New("index corrupt")
}

func (failingCorpus) Similar(context.Context, string, int) ([]Item, error) {
	return nil, errors.New("index corrupt")
}

func TestGroundCorpusFailureIsInfrastructure(t *testing.T) {
	engine := NewEngine(contracts.AgentMemory, failingCorpus{})

	_, err := engine.Ground(context.Background(), "sky is blue")
	assert.True(t, faults.IsInfrastructure(err))
}

func TestEvidenceReturnsRankedDetails(t *testing.T) {
	c := skyCorpus()
	c.AddFact("node_2", "blue whales sing in the deep blue sea")
	engine := NewEngine(contracts.AgentVision, c)

	details, err := engine.Evidence(context.Background(), "blue sky", 10)
	require.NoError(t, err)

	require.Len(t, details, 2)
	assert.Equal(t, contracts.AgentVision, details[0].SourceAgent)
	assert.GreaterOrEqual(t, details[0].Score, details[1].Score)
	assert.False(t, details[0].CreatedAt.IsZero())

	one, err := engine.Evidence(context.Background(), "blue sky", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestSuggestTruncatesAndIsDeterministic(t *testing.T) {
	c := NewMemoryCorpus()
	c.AddFact("a", "cats can jump very high")
	c.AddFact("b", "birds can fly south")
	c.AddFact("c", "fish can swim upstream")
	c.AddFact("d", "dogs can run fast")
	engine := NewEngine(contracts.AgentMemory, c)

	first, err := engine.Suggest(context.Background(), "cats can teleport", 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := engine.Suggest(context.Background(), "cats can teleport", 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The best lexical neighbor ranks first.
	assert.Equal(t, "a", first[0].ID)
}

func TestConcurrentGroundCalls(t *testing.T) {
	engine := NewEngine(contracts.AgentMemory, skyCorpus())

	done := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func() {
			_, err := engine.Ground(context.Background(), "sky is blue")
			done <- err
		}()
	}
	for i := 0; i < 16; i++ {
		assert.NoError(t, <-done)
	}
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(contracts.AgentMemory, skyCorpus()).
		WithClock(func() time.Time { return fixed })

	result, err := engine.Ground(context.Background(), "sky is blue")
	require.NoError(t, err)
	assert.Equal(t, fixed, result.Timestamp)
}
