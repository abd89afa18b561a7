package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// ConsoleOptions holds configuration for the diagnostic console logger.
type ConsoleOptions struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultConsoleOptions returns default options for console logging.
func DefaultConsoleOptions() ConsoleOptions {
	return ConsoleOptions{
		Level:     log.WarnLevel,
		Formatter: log.TextFormatter,
		Prefix:    "jobqueue",
	}
}

// NewConsole returns a leveled logger writing to w.
func NewConsole(w io.Writer, opts ConsoleOptions) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
}

// NewConsoleFromConfig builds a console logger from string configuration
// values as found in the config file or environment.
func NewConsoleFromConfig(w io.Writer, level, format string, timestamps, caller bool) *log.Logger {
	opts := DefaultConsoleOptions()
	opts.Level = ParseLevel(level)
	opts.Formatter = ParseFormatter(format)
	opts.ReportTimestamp = timestamps
	opts.ReportCaller = caller
	return NewConsole(w, opts)
}

// ParseLevel parses a string log level. Unknown levels map to warn.
func ParseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.WarnLevel
	}
}

// ParseFormatter parses a formatter name.
func ParseFormatter(format string) log.Formatter {
	switch format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
