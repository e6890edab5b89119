// Package logger holds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string    // "debug", "info", ...; falls back to LOG_LEVEL
	Output  io.Writer // defaults to os.Stdout
	Service string
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the base logger. Only the first call has an effect.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		name := cfg.Level
		if name == "" {
			name = os.Getenv("LOG_LEVEL")
		}
		if name != "" {
			if parsed, err := zerolog.ParseLevel(name); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stdout
		}
		service := cfg.Service
		if service == "" {
			service = "buildtrack"
		}

		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", service).
			Logger()
	})
}

func Base() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
