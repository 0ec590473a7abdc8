// ABOUTME: Logger construction for every pursuit component
// ABOUTME: Builds a leveled charmbracelet/log logger writing to stderr
package config

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger returns a timestamped logger at level. Unknown levels fall back to info.
func NewLogger(level string) *log.Logger {
	return newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          AppName,
		Level:           lvl,
	})
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
