package observability

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewLogger builds a structured logger for the SDK. Level is one of
// debug, info, warn, error, fatal, panic; anything else falls back to info.
// When pretty is true the logger writes human-readable console output,
// otherwise JSON.
func NewLogger(level string, pretty bool) zerolog.Logger {
	logLevel := zerolog.InfoLevel
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	case "fatal":
		logLevel = zerolog.FatalLevel
	case "panic":
		logLevel = zerolog.PanicLevel
	}

	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).Level(logLevel).With().Timestamp().Logger()
}

// NopLogger returns a logger that discards everything. It is the default
// for clients constructed without an explicit logger.
func NopLogger() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.Disabled)
}

// WithSessionID attaches a session correlation ID to the logger, generating
// one when the caller does not have an ID yet (e.g. before the remote side
// assigned one).
func WithSessionID(logger zerolog.Logger, sessionID string) zerolog.Logger {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return logger.With().Str("session_id", sessionID).Logger()
}

// NewSessionID generates a new client-side session correlation ID.
func NewSessionID() string {
	return uuid.New().String()
}
