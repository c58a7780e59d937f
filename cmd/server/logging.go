package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/cadence/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the process logger. Stdio mode logs to stderr to keep
// stdout clean for JSON-RPC. A configured log path adds a rotated file.
func newLogger(cfg config.LogConfig, mode string) (*slog.Logger, func()) {
	var console io.Writer = os.Stdout
	if mode == "stdio" {
		console = os.Stderr
	}

	w, closeFn := logWriter(cfg, console)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}))
	return logger, closeFn
}

func logWriter(cfg config.LogConfig, console io.Writer) (io.Writer, func()) {
	if cfg.Path == "" {
		return console, func() {}
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	file := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	return io.MultiWriter(console, file), func() { _ = file.Close() }
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
