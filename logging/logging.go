// Package logging builds the zerolog loggers used across the game
package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// Options selects level and sinks
type Options struct {
	// Level is one of trace, debug, info, warn, error, anything else means info
	Level string
	// Console receives colored output, nil to disable
	Console io.Writer
	// File receives uncolored output, nil to disable
	File io.Writer
	// Graylog is a host:port GELF UDP address, empty to disable
	Graylog string
}

// ParseLevel maps a config string to a zerolog level
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// New returns a logger writing to every configured sink
// With no sink the logger discards everything
func New(opts Options) (zerolog.Logger, error) {
	level := ParseLevel(opts.Level)
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.RFC3339,
		})
	}
	if opts.File != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.File,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}
	if opts.Graylog != "" {
		gw, err := gelf.NewWriter(opts.Graylog)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("graylog writer: %w", err)
		}
		writers = append(writers, gw)
	}
	if len(writers) == 0 {
		return zerolog.Nop(), nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	logger.Info().Str("loglevel", level.String()).Msg("logging set up")
	return logger, nil
}

// Sampled wraps l for per-frame paths: 5 entries per 10 seconds, then 1 in 100
func Sampled(l zerolog.Logger) zerolog.Logger {
	return l.With().Bool("sampled", true).Logger().Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      10 * time.Second,
		NextSampler: &zerolog.BasicSampler{N: 100},
	})
}

// FilePath names the log file of a session started at start
func FilePath(logsDir, name string, start time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", name, start.Format("20060102_150405")))
}
