package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
)

func TestWithContext_FromContext_RoundTrip(t *testing.T) {
	t.Parallel()

	l := mustTestLogger(t)
	ctx := logger.WithContext(context.Background(), l)

	assert.Equal(t, l, logger.FromContext(ctx))
}

func TestFromContext_NoLogger_ReturnsSharedFallback(t *testing.T) {
	t.Parallel()

	a := logger.FromContext(context.Background())
	b := logger.FromContext(context.Background())
	require.NotNil(t, a)
	assert.Same(t, a, b)

	// warn-level fallback must accept every level without panicking
	a.Debug("debug message")
	a.Info("info message")
	a.Warn("message with field", logger.String("key", "value"))
}

func TestWithContext_OverwritesPrevious(t *testing.T) {
	t.Parallel()

	first := mustTestLogger(t)
	second := mustTestLogger(t)

	ctx := logger.WithContext(context.Background(), first)
	ctx = logger.WithContext(ctx, second)

	assert.Same(t, second, logger.FromContext(ctx))
}

func TestWith_ReturnsNewInstance(t *testing.T) {
	t.Parallel()

	base := mustTestLogger(t)
	enriched := base.With(logger.SiteID("site-1"), logger.String("request_id", "abc-123"))

	assert.NotSame(t, base, enriched)
	enriched.Info("carries site and request fields")
}

func TestFieldHelpers(t *testing.T) {
	t.Parallel()

	reassigned := logger.Int64("reassigned", 1<<40)
	assert.Equal(t, "reassigned", reassigned.Key)
	assert.Equal(t, int64(1<<40), reassigned.Integer)

	assert.Equal(t, "job_id", logger.JobID("j-1").Key)
	assert.Equal(t, "connector_id", logger.ConnectorID("c-1").Key)

	mustTestLogger(t).Warn("dedupe finished", reassigned, logger.Int("merged", 2))
}

func mustTestLogger(t *testing.T) logger.Logger {
	t.Helper()

	l, err := logger.New(logger.Config{
		Level:       "warn",
		OutputPaths: []string{"stderr"},
	})
	require.NoError(t, err)
	return l
}
