package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Logger reports compilation decisions when verbose mode is enabled.
type Logger struct {
	enabled bool
	out     io.Writer
	slog    *slog.Logger
}

// NewLogger creates a new logger instance writing to stderr.
func NewLogger(enabled bool) *Logger {
	l := &Logger{enabled: enabled}
	l.SetOutput(os.Stderr)
	return l
}

// SetOutput sets the output writer for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
	l.slog = slog.New(tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "15:04:05.000",
		NoColor:    !isTerminal(w),
	}))
}

// Log prints a formatted message if verbose mode is enabled.
func (l *Logger) Log(format string, args ...interface{}) {
	if l.enabled {
		l.slog.Debug("[pcrego] " + fmt.Sprintf(format, args...))
	}
}

// Attrs logs msg with structured attributes if verbose mode is enabled.
func (l *Logger) Attrs(msg string, attrs ...slog.Attr) {
	if l.enabled {
		l.slog.LogAttrs(context.Background(), slog.LevelDebug, "[pcrego] "+msg, attrs...)
	}
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l.enabled {
		l.slog.Info(fmt.Sprintf("[pcrego] === %s ===", name))
	}
}

// Enabled returns whether the logger is enabled.
func (l *Logger) Enabled() bool {
	return l.enabled
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
