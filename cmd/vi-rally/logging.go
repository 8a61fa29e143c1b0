package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-rally/config"
	"github.com/lixenwraith/vi-rally/logging"
)

const logName = "vi-rally"

// setupLogging opens the session log file when debug is set
// stdout belongs to the game screen, so without debug or graylog everything is discarded
func setupLogging(cfg *config.Config, debug bool, start time.Time) (zerolog.Logger, *os.File, error) {
	graylog := cfg.Logging.GraylogAddress()
	if !debug && graylog == "" {
		return zerolog.Nop(), nil, nil
	}

	opts := logging.Options{Level: cfg.LogLevel, Graylog: graylog}
	var file *os.File
	if debug {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create logs dir: %w", err)
		}
		f, err := os.OpenFile(logging.FilePath(cfg.LogsDir, logName, start), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		opts.File = f
	}

	logger, err := logging.New(opts)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return zerolog.Nop(), nil, err
	}
	return logger, file, nil
}
