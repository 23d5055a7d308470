// Package logtrace provides logging and tracing utilities for the application.
// It integrates with zerolog for structured logging and carries request ids in the context.
package logtrace

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger at the given level, writing to stderr.
// An unknown level falls back to warn so the CLI output stays clean.
func InitLogger(level string) {
	InitLoggerWithWriter(level, os.Stderr)
}

// InitLoggerWithWriter is InitLogger with an explicit destination.
func InitLoggerWithWriter(level string, w io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
