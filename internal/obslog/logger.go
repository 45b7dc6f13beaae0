// Package obslog provides structured JSON logging for the decoder, adapted
// from the Autolytiq services' shared/logging package. It keeps that
// package's zerolog-backed Logger and trace-id propagation but drops the
// HTTP middleware (this is a library, not a request-serving process) in
// favor of a per-decode trace id threaded through context.Context.
package obslog

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Level is a minimum log level.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Config configures a Logger.
type Config struct {
	// Component names the subsystem emitting logs, e.g. "vindecoder".
	Component string
	// Level is the minimum level to emit. Defaults to INFO; reads
	// VINDECODER_LOG_LEVEL from the environment when empty.
	Level Level
	// Output defaults to os.Stdout.
	Output io.Writer
	// PrettyPrint enables human-readable console output.
	PrettyPrint bool
}

// Logger wraps zerolog.Logger with decoder-specific context.
type Logger struct {
	zl        zerolog.Logger
	component string
}

// New creates a Logger from cfg.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	level := cfg.Level
	if level == "" {
		level = Level(strings.ToUpper(os.Getenv("VINDECODER_LOG_LEVEL")))
	}

	var zlevel zerolog.Level
	switch level {
	case LevelDebug:
		zlevel = zerolog.DebugLevel
	case LevelWarn:
		zlevel = zerolog.WarnLevel
	case LevelError:
		zlevel = zerolog.ErrorLevel
	default:
		zlevel = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"

	var zl zerolog.Logger
	if cfg.PrettyPrint {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}).
			With().Timestamp().Str("component", cfg.Component).Logger().Level(zlevel)
	} else {
		zl = zerolog.New(output).
			With().Timestamp().Str("component", cfg.Component).Logger().Level(zlevel)
	}

	return &Logger{zl: zl, component: cfg.Component}
}

// Nop returns a Logger that discards everything, used as the zero-value
// default when a Decoder is constructed without an explicit logger.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

type contextKey string

const traceIDKey contextKey = "vindecoder_trace_id"

// WithTraceID returns a context carrying traceID, generating one if empty.
func WithTraceID(ctx context.Context, traceID string) (context.Context, string) {
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return context.WithValue(ctx, traceIDKey, traceID), traceID
}

// TraceID returns the trace id carried by ctx, or "" if none.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

// WithContext returns a Logger annotated with ctx's trace id, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if traceID := TraceID(ctx); traceID != "" {
		return &Logger{zl: l.zl.With().Str("trace_id", traceID).Logger(), component: l.component}
	}
	return l
}

// WithFields returns a Logger with additional structured fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger(), component: l.component}
}

// WithError returns a Logger with an error field, or l unchanged if err is nil.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{zl: l.zl.With().Err(err).Logger(), component: l.component}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

// Zerolog exposes the underlying zerolog.Logger for advanced use.
func (l *Logger) Zerolog() *zerolog.Logger { return &l.zl }
