// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"task-manager/api/internal/config"
)

// New returns a logrus logger configured from cfg. Unknown levels fall back
// to info and unknown formats to text.
func New(cfg config.LogConfig) *log.Logger {
	return NewWithOutput(cfg, os.Stdout)
}

func NewWithOutput(cfg config.LogConfig, out io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(out)

	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
