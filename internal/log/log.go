// Package log provides structured logging for icon-cli.
//
// Command output goes to stdout; diagnostics go to stderr through these
// loggers so they never mix with printed results.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	Config   zerolog.Logger
	Keystore zerolog.Logger
	Network  zerolog.Logger
	RPC      zerolog.Logger
	Wallet   zerolog.Logger
	Tx       zerolog.Logger
	Protocol zerolog.Logger
)

func init() {
	Logger = NewConsoleLogger(os.Stderr, "warn")
	initComponentLoggers()
}

// Init replaces the global logger. jsonOutput switches from the colored
// console writer to one JSON object per line.
func Init(level string, jsonOutput bool) {
	InitWriter(os.Stderr, level, jsonOutput)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, level string, jsonOutput bool) {
	if jsonOutput {
		Logger = NewJSONLogger(w, level)
	} else {
		Logger = NewConsoleLogger(w, level)
	}
	initComponentLoggers()
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

func initComponentLoggers() {
	Config = WithComponent("config")
	Keystore = WithComponent("keystore")
	Network = WithComponent("network")
	RPC = WithComponent("rpc")
	Wallet = WithComponent("wallet")
	Tx = WithComponent("tx")
	Protocol = WithComponent("protocol")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Debug logs a debug message.
func Debug() *zerolog.Event { return Logger.Debug() }

// Info logs an info message.
func Info() *zerolog.Event { return Logger.Info() }

// Warn logs a warning message.
func Warn() *zerolog.Event { return Logger.Warn() }

// Error logs an error message.
func Error() *zerolog.Event { return Logger.Error() }
