package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/streamwave/internal/config"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_Stderr(t *testing.T) {
	logger, closer, err := New(config.LogConfig{Level: "warn"})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, log.WarnLevel, logger.GetLevel())
}

func TestNew_FileRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streamwave.log")
	logger, closer, err := New(config.LogConfig{
		Level:      "debug",
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	require.NoError(t, err)

	logger.Debug("hello", "track", "abc")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, "hello"), out)
	assert.True(t, strings.Contains(out, "track=abc"), out)
}

func TestWriter(t *testing.T) {
	var sb strings.Builder
	logger := log.New(&sb)

	_, err := Writer(logger, log.InfoLevel).Write([]byte("sink says hi\n"))
	require.NoError(t, err)

	assert.Contains(t, sb.String(), "sink says hi")
}
