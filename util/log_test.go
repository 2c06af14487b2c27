package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "logs", "wikicrawler.log")
	logger, err := NewLogger(LogConfig{
		Level: "debug",
		File:  filename,
	})
	require.NoError(t, err)

	logger.Info("hello")
	logger.Sync()

	bs, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"msg":"hello"`)
	assert.Contains(t, string(bs), `"level":"INFO"`)
}

func TestNewLoggerBadLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
