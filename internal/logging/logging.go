// Package logging configures the process logger.
//
// Logs always go to stderr because stdout carries the MCP protocol. An
// optional rotating log file receives the same entries.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and optional file output.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger writing to stderr and, when opts.File is set, to a
// size-rotated file. The returned Closer releases the file.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(ParseLevel(opts.Level))

	if opts.File == "" {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, err
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    max(1, opts.MaxSizeMB),
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	return logger, file, nil
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	l, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}

// Discard returns an entry that drops everything, for callers that have no logger.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
