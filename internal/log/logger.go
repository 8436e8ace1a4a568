package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger every component derives from. Development
// gets colorized console output at debug level; production drops color
// and the debug noise.
func New(environment string) zerolog.Logger {
	production := environment == "production"

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    production,
	}

	level := zerolog.DebugLevel
	if production {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(output).With().
		Timestamp().
		Str("service", "dogify").
		Str("env", environment).
		Logger()
}
