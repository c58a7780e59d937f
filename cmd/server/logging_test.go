package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/cadence/internal/config"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	require.Equal(t, slog.LevelError, parseLogLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestLogWriter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cadence.log")
	var console bytes.Buffer

	w, closeFn := logWriter(config.LogConfig{Path: path, MaxSizeMB: 1}, &console)
	logger := slog.New(slog.NewTextHandler(w, nil))
	logger.Info("event recorded", "event_id", "enrollment")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "event_id=enrollment")
	require.Contains(t, console.String(), "event_id=enrollment")
}

func TestLogWriter_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	w, closeFn := logWriter(config.LogConfig{}, &console)
	defer closeFn()
	require.Same(t, &console, w)
}
