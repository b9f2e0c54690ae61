package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileName is the log file created inside Config.Dir.
const FileName = "subnotify.log"

type Config struct {
	Dir   string
	Debug bool

	// Console receives a copy of every record. Nil disables the mirror.
	Console io.Writer
}

// New opens <Dir>/subnotify.log for appending and returns a JSON logger that
// writes to it and to cfg.Console. The returned func closes the file.
func New(cfg Config) (*slog.Logger, func() error, error) {
	dir := filepath.Clean(cfg.Dir)
	if cfg.Dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Discard(), nil, err
	}

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return Discard(), nil, err
	}

	var w io.Writer = f
	if cfg.Console != nil {
		w = io.MultiWriter(f, cfg.Console)
	}

	l := slog.New(newHandler(w, cfg.Debug))
	l.Info("logger.initialized", "path", path, "debug", cfg.Debug)

	return l, f.Close, nil
}

func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newHandler(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	addSource := false
	if debug {
		level = slog.LevelDebug
		addSource = true
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
			}
			return a
		},
	})
}
