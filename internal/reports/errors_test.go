package reports

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, classify(ctx, "overview", nil))

	plain := errors.New("no such table: events")
	assert.Same(t, plain, classify(ctx, "overview", plain))

	locked := classify(ctx, "overview", errors.New("database is locked"))
	assert.True(t, IsTransient(locked))

	deadline := classify(ctx, "deep_dive", fmt.Errorf("task current: %w", context.DeadlineExceeded))
	var terr *TransientError
	assert.ErrorAs(t, deadline, &terr)
	assert.True(t, terr.Retryable())
	assert.Equal(t, "deep_dive", terr.Report)
	assert.ErrorIs(t, deadline, context.DeadlineExceeded)
}
