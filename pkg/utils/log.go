package utils

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"
)

type LogHandlerType string

const (
	HandlerTypeText LogHandlerType = "text"
	HandlerTypeJSON LogHandlerType = "json"
)

type LogLevel string

const (
	LogLevelError LogLevel = "error"
	LogLevelWarn  LogLevel = "warn"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
)

var slogLevels = map[LogLevel]slog.Level{
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

var (
	handlerTypeFlag = flag.String("log_handler_type", string(HandlerTypeJSON), "Log handler type: json/text")
	logLevelFlag    = flag.String("log_level", string(LogLevelInfo), "Log level: debug/info/warn/error")
	logSourceFlag   = flag.Bool("log_add_source", false, "Attach the source file:line to every log record.")
)

// newLogHandler builds the slog handler writing to `out`. Unknown values fall back to json/info after raising an
// invariant, so a typo in the config never silences the logs.
func newLogHandler(out io.Writer, handlerType LogHandlerType, logLevel LogLevel, addSource bool) slog.Handler {
	slogLevel, knownLevel := slogLevels[logLevel]
	if !knownLevel {
		RaiseInvariant("log", "unsupported_log_level", "Got an unsupported log level.", "logLevel", logLevel)
		slogLevel = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: slogLevel, AddSource: addSource}
	switch handlerType {
	case HandlerTypeJSON:
		return slog.NewJSONHandler(out, handlerOptions)
	case HandlerTypeText:
		return slog.NewTextHandler(out, handlerOptions)
	default:
		RaiseInvariant("log", "unsupported_handler_type", "Got an unsupported handler type.",
			"handlerType", handlerType)
		return slog.NewJSONHandler(out, handlerOptions)
	}
}

// InitLogging configures default logger of slog. Note that this method must be called after flag.Parse().
// Logs go to stderr; stdout is left to whatever the binary prints as its output.
func InitLogging() {
	handler := newLogHandler(os.Stderr, LogHandlerType(strings.ToLower(*handlerTypeFlag)),
		LogLevel(strings.ToLower(*logLevelFlag)), *logSourceFlag)
	// `SetDefault` happens atomically and doesn't panic when called in multiple goroutines.
	slog.SetDefault(slog.New(handler))
	slog.Debug("Log handler configured successfully.", "type", *handlerTypeFlag, "logLevel", *logLevelFlag)
}
