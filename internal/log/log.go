// Package log provides structured, colored logging for the wallet tools.
// Everything goes to stderr so command output on stdout stays clean.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the system.
var (
	Wallet   zerolog.Logger
	Keystore zerolog.Logger
	Index    zerolog.Logger
	Storage  zerolog.Logger
	CLI      zerolog.Logger
)

func init() {
	Logger = NewConsoleLogger(os.Stderr, "info")
	initComponentLoggers()
}

// Init configures the global logger. When file is non-empty, every line is
// also appended to it as JSON, whatever the console format.
func Init(level string, jsonOutput bool, file string) error {
	var w io.Writer = os.Stderr
	if !jsonOutput {
		w = consoleWriter(os.Stderr)
	}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		w = zerolog.MultiLevelWriter(w, f)
	}
	Logger = newLogger(w, level)
	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(consoleWriter(w), level)
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// parseLevel maps a config level name to zerolog. Unknown names mean info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func initComponentLoggers() {
	Wallet = component("wallet")
	Keystore = component("keystore")
	Index = component("index")
	Storage = component("storage")
	CLI = component("cli")
}

func component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithWallet returns a keystore logger tagged with a wallet ID. The ID is
// derived from public data and safe to log.
func WithWallet(walletID string) zerolog.Logger {
	return Keystore.With().Str("wallet_id", walletID).Logger()
}

// SetOutput redirects every logger to w, keeping the current level.
// Tests use it to capture or silence output.
func SetOutput(w io.Writer) {
	Logger = Logger.Output(w)
	initComponentLoggers()
}

// Benchmark returns a func that logs the time elapsed since the call at
// debug level. Use as defer log.Benchmark("name")().
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
