package observability

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging.
// A nil *Logger is valid and discards everything.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new structured logger.
// Unknown levels fall back to info. console selects zerolog's human-readable writer.
func NewLogger(service, version string, output io.Writer, level string, console bool) *Logger {
	if output == nil {
		output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	if console {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(output).Level(lvl).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", getHostname()).
		Logger()

	return &Logger{
		logger: logger,
	}
}

// NewOperationID returns a fresh identifier for correlating one operation's log lines.
func NewOperationID() string {
	return uuid.New().String()
}

// WithOperation adds operation_id context to logger.
func (l *Logger) WithOperation(operationID string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		logger: l.logger.With().Str("operation_id", operationID).Logger(),
	}
}

// WithArtifact adds artifact path context to logger.
func (l *Logger) WithArtifact(path string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		logger: l.logger.With().Str("artifact", path).Logger(),
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	l.logger.Error().Err(err).Msg(msg)
}

// OperationStarted logs the start of an encrypt, decrypt, sign or verify call.
func (l *Logger) OperationStarted(operation string) {
	if l == nil {
		return
	}
	l.logger.Info().
		Str("operation", operation).
		Msg("operation started")
}

// RecordProcessed logs one sealed or opened ciphertext record.
func (l *Logger) RecordProcessed(operation string, index int, plaintextLen int) {
	if l == nil {
		return
	}
	l.logger.Debug().
		Str("operation", operation).
		Int("record_index", index).
		Int("plaintext_len", plaintextLen).
		Msg("record processed")
}

// OperationCompleted logs a successful operation.
func (l *Logger) OperationCompleted(operation string, records int, plaintextBytes int64, duration time.Duration) {
	if l == nil {
		return
	}
	l.logger.Info().
		Str("operation", operation).
		Int("records", records).
		Int64("plaintext_bytes", plaintextBytes).
		Float64("duration_seconds", duration.Seconds()).
		Msg("operation completed")
}

// OperationFailed logs a failed operation.
func (l *Logger) OperationFailed(operation string, records int, err error) {
	if l == nil {
		return
	}
	l.logger.Error().
		Str("operation", operation).
		Int("records", records).
		Err(err).
		Msg("operation failed")
}

// KeyLoaded logs a key file being read from disk.
func (l *Logger) KeyLoaded(path, fingerprint string, passphraseProtected bool) {
	if l == nil {
		return
	}
	l.logger.Info().
		Str("path", path).
		Str("fingerprint", fingerprint).
		Bool("passphrase_protected", passphraseProtected).
		Msg("key loaded")
}

// Helper function to get hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
