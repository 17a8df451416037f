package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global zerolog logger from app.log_level and a
// format ("json" or "console").
func InitLogger(level, format string) {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer = os.Stdout
	if format == "console" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	log.Info().Str("level", logLevel.String()).Str("format", format).Msg("logger initialized")
}

// NewLogger returns a component-scoped logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// NewAgentLogger returns a logger scoped to one Agent Panel member.
func NewAgentLogger(agentName string) zerolog.Logger {
	return log.With().Str("component", "agent").Str("agent_name", agentName).Logger()
}
