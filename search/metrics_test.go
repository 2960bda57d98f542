package search

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestRetriever_WithMetrics(t *testing.T) {
	metrics, err := NewMetrics(nil)
	require.NoError(t, err)

	r, err := NewRetriever(WithIndex(buildIndex(t)), WithEmbedder(newEmbedder()), WithMetrics(metrics))
	require.NoError(t, err)

	_, err = r.FindSimilar(context.Background(), "clinic hours", 3)
	require.NoError(t, err)
	_, err = r.Search(make([]float32, testDim), 2)
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.queries))
	assert.Equal(t, float64(2*len(pages)), testutil.ToFloat64(metrics.rowsScanned))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.queryDuration))
}

func TestRetriever_ExplicitMonitorBypassesMetrics(t *testing.T) {
	metrics, err := NewMetrics(nil)
	require.NoError(t, err)

	r, err := NewRetriever(WithIndex(buildIndex(t)), WithEmbedder(newEmbedder()), WithMetrics(metrics))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	_, err = r.FindSimilarWithMonitor(context.Background(), "clinic hours", 1, monitor)
	require.NoError(t, err)

	assert.Len(t, monitor.results, 1)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.queries))
}
