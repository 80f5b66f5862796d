package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger creates a structured zerolog.Logger tagged with the service name.
// Output is always JSON on stdout so log shippers never need a format flag.
func NewLogger(service, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}
