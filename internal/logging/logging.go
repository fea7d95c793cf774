package logging

import (
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

var levels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func ParseLevel(s string) (log.Level, error) {
	l, ok := levels[strings.ToLower(s)]
	if !ok {
		return log.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// New builds a coloured handler on w. With a non-empty file, records are
// also appended to it as JSON. The returned closer releases the file.
func New(w io.Writer, level log.Level, file string) (*log.Logger, io.Closer, error) {
	console := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})
	if file == "" {
		return log.New(console), nopCloser{}, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	jsonH := log.NewJSONHandler(f, &log.HandlerOptions{Level: level})

	return log.New(slogmulti.Fanout(console, jsonH)), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
