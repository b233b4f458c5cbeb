// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the logrus logger used by every command.
package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Format is the log output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New returns a logger writing to out at the given level. Logs go to
// stderr in the CLI so stdout stays reserved for reports.
func New(out io.Writer, level string, format Format) (*logrus.Logger, *CountHook, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.Out = out
	logger.Level = lvl

	switch format {
	case FormatJSON:
		logger.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "@timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		}
	case FormatText, "":
		logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", format)
	}

	hook := NewCountHook()
	logger.AddHook(hook)
	return logger, hook, nil
}

// CountHook counts log entries per level.
type CountHook struct {
	mu     sync.RWMutex
	counts map[logrus.Level]int
}

// NewCountHook returns an initialized CountHook.
func NewCountHook() *CountHook {
	return &CountHook{counts: make(map[logrus.Level]int)}
}

// Levels returns the logrus levels that the hook should be fired for.
func (h *CountHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire executes the hook's logic.
func (h *CountHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[entry.Level]++
	return nil
}

// Count returns the number of entries written at level.
func (h *CountHook) Count(level logrus.Level) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[level]
}
