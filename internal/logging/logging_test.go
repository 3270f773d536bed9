package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("shouty", "")
	require.Error(t, err)
}

func TestEmptyLevelMeansInfo(t *testing.T) {
	log, err := New("", "")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))
	require.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestFileLoggerWritesRotatedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docdb.log")

	log, err := New("info", path)
	require.NoError(t, err)
	log.Info("snapshot written", zap.String("addr", "127.0.0.1:8191"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"snapshot written"`)
	require.Contains(t, string(data), `"addr"`)
}
