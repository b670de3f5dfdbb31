// Package logger is the single place the server configures zerolog.
//
// Every package asks for a component logger once and keeps it:
//
//	var log = logger.Component("database")
//	log.Info().Str("file", name).Msg("migration applied")
//
// Component loggers read the global level at write time, so Init can run
// after package-level loggers were created.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls level and output format.
type Config struct {
	// Level: trace, debug, info, warn, error, disabled. Default info.
	Level string
	// Format: json or console. Default console.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

var (
	mu   sync.RWMutex
	base zerolog.Logger
	out  = &switchWriter{w: os.Stderr}
)

func init() {
	Init(Config{})
}

// Init (re)configures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = cfg.Output
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}
	out.set(w)

	base = zerolog.New(out).With().Timestamp().Logger()
}

// ParseLevel maps a level name to zerolog. Unknown names fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// L returns the global logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// Component returns a child logger tagged with component=<name>.
// The returned logger writes through the shared output, so a later Init
// changes its format too.
func Component(name string) zerolog.Logger {
	return zerolog.New(out).With().Timestamp().Str("component", name).Logger()
}

// WithRequestID stores the request id for Ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a component logger enriched with the request id found in ctx.
func Ctx(ctx context.Context, component string) *zerolog.Logger {
	l := Component(component)
	if id := RequestID(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}

// switchWriter lets Init swap the destination under loggers that already exist.
type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}
