package logctx_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromOr(t *testing.T) {
	assert.NotNil(t, logctx.FromOr(context.Background(), nil))

	fallback := observability.NopLogger()
	assert.Equal(t, fallback, logctx.FromOr(context.Background(), fallback))
	assert.Nil(t, logctx.From(context.Background()))
}

func TestEnrich(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zaplogger.New(zap.New(core))

	ctx, logger := logctx.Enrich(context.Background(), base, observability.F("use_case", "cart.add"))
	logger.Info("first")

	_, nested := logctx.Enrich(ctx, nil, observability.F("event", "catalog.reloaded"))
	nested.Info("second")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "cart.add", entries[0].ContextMap()["use_case"])
	assert.Equal(t, "cart.add", entries[1].ContextMap()["use_case"])
	assert.Equal(t, "catalog.reloaded", entries[1].ContextMap()["event"])
}
