// Package logging wraps zerolog behind a process-wide logger.
//
// Call Init once from main. Before Init runs, a JSON logger at info level
// writing to stderr is in place so packages may log during startup.
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("view", "films").Msg("page served")
//	logging.Ctx(ctx).Warn().Err(err).Msg("count failed")
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level  string    // trace, debug, info, warn, error (default info)
	Format string    // json or console (default json)
	Caller bool      // include caller file:line
	Output io.Writer // default os.Stderr
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging must work before Init is called
func init() {
	initLogger(Config{})
}

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	out := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}
	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	log = ctx.Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With returns a child logger carrying a component field.
func With(component string) zerolog.Logger {
	l := Logger()
	return l.With().Str("component", component).Logger()
}

func Debug() *zerolog.Event { l := Logger(); return l.Debug() }
func Info() *zerolog.Event  { l := Logger(); return l.Info() }
func Warn() *zerolog.Event  { l := Logger(); return l.Warn() }
func Error() *zerolog.Event { l := Logger(); return l.Error() }
func Fatal() *zerolog.Event { l := Logger(); return l.Fatal() }
