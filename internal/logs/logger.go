// Package logs builds the process logger: a text handler on the terminal and,
// optionally, a JSON handler appending to a log file.
package logs

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Options configures New.
type Options struct {
	Verbose bool   // Debug level instead of Info
	File    string // JSON log file to append to, if set
}

// New creates a logger writing text records to w and, when opts.File is set,
// JSON records to that file. The returned closer releases the file and is
// never nil.
func New(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	if opts.Verbose {
		level.Set(slog.LevelDebug)
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		closer = f
	}

	return slog.New(&Handler{
		Handler: slogmulti.Fanout(handlers...),
	}), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
