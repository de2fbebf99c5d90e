package zaplogger_test

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := zaplogger.New(zap.New(core), observability.F("service", "storefront"))

	log.With(observability.F("use_case", "cart.add")).Info("use_case_done",
		observability.F("quantity", 2),
		observability.F("error", errors.New("boom")),
	)
	log.Debug("debug_line")

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "use_case_done", first.Message)
	ctx := first.ContextMap()
	assert.Equal(t, "storefront", ctx["service"])
	assert.Equal(t, "cart.add", ctx["use_case"])
	assert.EqualValues(t, 2, ctx["quantity"])
	assert.Equal(t, "boom", ctx["error"])

	assert.Equal(t, zap.DebugLevel, entries[1].Level)
}
