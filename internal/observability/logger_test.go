package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osudump/osudump/internal/core/engine"
	"github.com/osudump/osudump/internal/observability"
)

func TestInitCLILogger(t *testing.T) {
	t.Run("default level", func(t *testing.T) {
		observability.InitCLILogger("osudump-test", "info", false)
		require.NotNil(t, observability.CLILogger)

		observability.CLILogger.Info("Test CLI log message", zap.String("test", "value"))
	})

	t.Run("verbose", func(t *testing.T) {
		observability.InitCLILogger("osudump-test", "info", true)
		require.NotNil(t, observability.CLILogger)

		observability.CLILogger.Debug("Debug message", zap.String("mode", "verbose"))
	})

	t.Run("satisfies the fetcher logger", func(t *testing.T) {
		observability.InitCLILogger("osudump-test", "debug", false)

		var logger engine.Logger = observability.CLILogger
		assert.NotNil(t, logger)
		logger.Warn("Request failed", zap.Int("attempt", 1))
	})
}
