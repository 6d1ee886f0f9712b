// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Retry budget for artifact downloads. Five attempts with exponential
// backoff spans roughly thirty seconds, enough to ride out a release
// host deploy without making a dead host take minutes to diagnose.
const (
	retryMax     = 4
	retryWaitMin = 500 * time.Millisecond
	retryWaitMax = 8 * time.Second
)

// NewRetryClient returns an *http.Client whose transport retries
// transient failures (connection errors, HTTP 429 and 5xx) with
// exponential backoff. Retry chatter is logged at debug level through
// the given logger.
func NewRetryClient(logger *slog.Logger) *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = retryWaitMin
	client.RetryWaitMax = retryWaitMax
	client.Logger = retryLogger{logger: logger}
	return client.StandardClient()
}

// retryLogger adapts slog to retryablehttp's LeveledLogger interface.
// The retry library narrates every request at info level, which would
// drown the installer's own output, so everything below error is
// demoted to debug.
type retryLogger struct {
	logger *slog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}
