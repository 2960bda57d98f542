package mock

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	v1, err := m.EmbedText(ctx, "home dialysis")
	require.NoError(t, err)
	v2, err := m.EmbedText(ctx, "home dialysis")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, DefaultDimension)
	assert.Equal(t, 2, m.CallCount())
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	v := GenerateDeterministicVector("kidney care", 16)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder_BatchMatchesSingle(t *testing.T) {
	m := &MockEmbedder{Dimension: 8}
	ctx := context.Background()

	batch, err := m.EmbedTexts(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, batch, 3)

	single, err := m.EmbedText(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, single, batch[1])
	assert.Equal(t, 4, m.TextCount())
}

func TestMockEmbedder_ConcurrentCounts(t *testing.T) {
	m := &MockEmbedder{Dimension: 4}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedTexts(context.Background(), []string{"x", "y"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, m.CallCount())
	assert.Equal(t, 40, m.TextCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	assert.Equal(t, "mock", p.Model())
	assert.NotNil(t, p.Embedder())

	mp := p.(*MockProvider)
	assert.Same(t, mp.GetMockEmbedder(), p.Embedder())
	require.NoError(t, p.Close())
	assert.True(t, mp.Closed())
}
