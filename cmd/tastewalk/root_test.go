package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tastewalk/pkg/core"
)

func TestFailingCommandStillClosesTheApp(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "tastewalk.prom")
	t.Setenv("TASTEWALK_METRICS__FILE", metricsFile)
	t.Setenv("TASTEWALK_LOG__LEVEL", "error")

	rootCmd.SetArgs([]string{"gather", "--data-dir", filepath.Join(dir, "data"), "--log-format", "json"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSnapshotNotFound)

	_, statErr := os.Stat(metricsFile)
	assert.NoError(t, statErr, "metrics are exported when the command fails")
}
