package navlog_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap"

	"github.com/GunfireGames/Gunfire3DNavigation/internal/navlog"
)

func TestWarnOnceLogsFirstOccurrenceOnly(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	reg := navlog.NewOnceRegistry(logger)

	reg.WarnOnce("tile-7", "degenerate triangle skipped")
	reg.WarnOnce("tile-7", "degenerate triangle skipped")
	reg.WarnOnce("tile-8", "degenerate triangle skipped")

	require.Equal(t, 2, logs.Len())
}

func TestNewBuildsLogger(t *testing.T) {
	logger, err := navlog.New(navlog.Options{})
	require.NoError(t, err)
	require.NotNil(t, logger)
}
