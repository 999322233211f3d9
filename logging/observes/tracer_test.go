package observes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerRejectsMissingConfig(t *testing.T) {
	_, err := NewTracer(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewTracer(context.Background(), &TracerOption{Name: "rendercore"})
	assert.Error(t, err)
}

func TestNewTracerLazyEndpoint(t *testing.T) {
	// the gRPC exporter connects lazily, so an unreachable endpoint still builds
	shutdown, err := NewTracer(context.Background(), &TracerOption{
		URL:          "127.0.0.1:4317",
		Name:         "rendercore",
		SamplingRate: 1,
		BatchTimeout: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

func TestBatchOptions(t *testing.T) {
	assert.Empty(t, batchOptions(&TracerOption{}))
	assert.Len(t, batchOptions(&TracerOption{MaxExportBatchSize: 10, BatchTimeout: time.Second, ExportTimeout: time.Second}), 3)
}
