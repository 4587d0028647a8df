package canonicalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verity-labs/trustcore/pkg/crypto"
)

func TestMarshalSortsKeys(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1, "c": 3}
	b := map[string]any{"c": 3, "a": 1, "b": 2}

	ba, err := Marshal(a)
	require.NoError(t, err)
	bb, err := Marshal(b)
	require.NoError(t, err)

	assert.Equal(t, ba, bb)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(ba))
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	b, err := Marshal(map[string]any{"q": "a<b>&c"})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"a<b>&c"}`, string(b))
}

func TestMarshalRejectsNaN(t *testing.T) {
	_, err := Marshal(map[string]any{"x": math.NaN()})
	assert.Error(t, err)

	_, err = Marshal([]float64{1.0, math.Inf(1)})
	assert.Error(t, err)
}

func TestHashDeterministicAcrossInsertionOrder(t *testing.T) {
	d := crypto.NewSHA256()

	h1, err := Hash(d, map[string]any{"status": "success", "action_type": "memory_add"})
	require.NoError(t, err)
	h2, err := Hash(d, map[string]any{"action_type": "memory_add", "status": "success"})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, h1)
}

func TestHashRespectsStructTags(t *testing.T) {
	type record struct {
		ActionType string `json:"action_type"`
		Agent      string `json:"agent"`
	}
	d := crypto.NewSHA256()

	hStruct, err := Hash(d, record{ActionType: "x", Agent: "memory"})
	require.NoError(t, err)
	hMap, err := Hash(d, map[string]any{"action_type": "x", "agent": "memory"})
	require.NoError(t, err)

	assert.Equal(t, hMap, hStruct)
}
