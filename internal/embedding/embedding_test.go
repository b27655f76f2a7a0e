package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFuncIsDeterministic(t *testing.T) {
	embed := NewLocalFunc()

	a, err := embed(context.Background(), "the siege of Stalingrad")
	require.NoError(t, err)
	b, err := embed(context.Background(), "the siege of Stalingrad")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLocalFuncIsNormalized(t *testing.T) {
	embed := NewLocalFunc()

	vec, err := embed(context.Background(), "Normandy landings June 1944")
	require.NoError(t, err)
	require.Len(t, vec, localDims)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestLocalFuncIgnoresCaseAndPunctuation(t *testing.T) {
	embed := NewLocalFunc()

	a, err := embed(context.Background(), "Stalingrad, 1942.")
	require.NoError(t, err)
	b, err := embed(context.Background(), "stalingrad 1942")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLocalFuncEmptyInput(t *testing.T) {
	embed := NewLocalFunc()

	vec, err := embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, localDims)
	// must not be the zero vector, cosine similarity would divide by zero
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.Greater(t, norm, 0.0)
}
