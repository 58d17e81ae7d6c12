package bashx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// This file defines the logging abstraction used by the package.
//
// Log lines are emitted at named levels (trace, result, error classes
// are all configurable by name, see Config) through a single Sink
// interface with two concrete implementations: a structured slog sink
// and a basic line-oriented writer sink.

// Level names accepted by the sinks. SUCCESS sorts between INFO and
// WARN; unknown names are treated as INFO.
const (
	LevelTrace   = "TRACE"
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelSuccess = "SUCCESS"
	LevelWarn    = "WARN"
	LevelError   = "ERROR"
)

// Sink logs a message at a named level.
type Sink interface {
	Log(level string, msg string)
}

// Log is the sink used by the package.
//
// It defaults to a structured text sink on stderr that lets everything
// through; the per-event-class thresholds live in Config. Callers can
// assign a different sink to this variable:
//
//	bashx.Log = bashx.NewWriterSink(os.Stderr, bashx.LevelDebug)
//
// Reassignment follows the same serial-mutation discipline as Current.
var Log Sink = NewSlogSink(os.Stderr, LevelTrace, false)

// NullSink returns a sink that discards everything.
func NullSink() Sink {
	handler := slog.NewJSONHandler(
		io.Discard,
		&slog.HandlerOptions{
			Level: slog.LevelError + 1,
		})
	return &SlogSink{logger: slog.New(handler)}
}

// SelectSink builds the sink described by cfg, writing to w.
// cfg.Sink chooses the implementation: "basic" for the plain writer
// sink, anything else for the structured slog sink. The result is
// usually installed as the package Log handle:
//
//	bashx.Log = bashx.SelectSink(bashx.Current, os.Stderr)
func SelectSink(cfg *Config, w io.Writer) Sink {
	if cfg.Sink == "basic" {
		return NewWriterSink(w, cfg.LogLevel)
	}
	return NewSlogSink(w, cfg.LogLevel, false)
}

// SlogSink logs through log/slog.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a SlogSink writing to w, dropping entries below
// minLevel. Set json for a JSON handler instead of a text handler.
func NewSlogSink(w io.Writer, minLevel string, json bool) *SlogSink {
	opts := &slog.HandlerOptions{
		Level: slogLevel(minLevel),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// keep the TRACE name instead of slog's DEBUG-4
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slogLevelTrace {
					a.Value = slog.StringValue(LevelTrace)
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &SlogSink{logger: slog.New(handler)}
}

func (s *SlogSink) Log(level string, msg string) {
	s.logger.Log(context.Background(), slogLevel(level), msg)
}

// slogLevelTrace is one step below slog.LevelDebug, mirroring the
// TRACE < DEBUG ordering of the named levels.
const slogLevelTrace = slog.LevelDebug - 4

func slogLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case LevelTrace:
		return slogLevelTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo, LevelSuccess:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WriterSink is the basic sink: one "timestamp | LEVEL | message" line
// per entry, no structure. It is safe for concurrent use.
type WriterSink struct {
	mu  sync.Mutex
	w   io.Writer
	min int
}

// NewWriterSink returns a WriterSink writing to w, dropping entries
// below minLevel.
func NewWriterSink(w io.Writer, minLevel string) *WriterSink {
	return &WriterSink{w: w, min: levelRank(minLevel)}
}

func (s *WriterSink) Log(level string, msg string) {
	if levelRank(level) < s.min {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s | %-8s | %s\n",
		time.Now().Format("2006-01-02 15:04:05"), strings.ToUpper(level), msg)
}

// levelRank orders the named levels for threshold checks.
func levelRank(name string) int {
	switch strings.ToUpper(name) {
	case LevelTrace:
		return 5
	case LevelDebug:
		return 10
	case LevelInfo:
		return 20
	case LevelSuccess:
		return 25
	case LevelWarn:
		return 30
	case LevelError:
		return 40
	default:
		return 20
	}
}
