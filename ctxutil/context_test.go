package ctxutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureTraceID(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetTraceID(ctx))

	same, again := EnsureTraceID(ctx)
	assert.Equal(t, id, again)
	assert.Equal(t, ctx, same)
}

func TestNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is tolerated on purpose
	assert.Empty(t, GetTraceID(nil))
	//nolint:staticcheck
	ctx := SetJobID(nil, "job-1")
	assert.Equal(t, "job-1", GetJobID(ctx))
}
