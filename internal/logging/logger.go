// Package logging builds the logrus logger shared by the command line tools.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/handiism/feed-downloader/internal/config"
	"github.com/sirupsen/logrus"
)

// New creates a logger from settings. Output goes to console (when not nil)
// and to s.Path (when set). The returned closer releases the log file.
func New(s config.LogSettings, console io.Writer) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level := s.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
	}
	logger.SetLevel(lvl)

	if s.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	var outputs []io.Writer
	if console != nil {
		outputs = append(outputs, console)
	}
	if s.Path != "" {
		f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		outputs = append(outputs, f)
		closer = f
	}

	switch len(outputs) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(outputs[0])
	default:
		logger.SetOutput(io.MultiWriter(outputs...))
	}

	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
