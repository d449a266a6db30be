// SPDX-License-Identifier: Apache-2.0

package analyze

import "github.com/pterm/pterm"

// Logger is the orchestrator's logging seam: a small interface backed by
// pterm in production and a no-op in tests. Its Warn method also satisfies
// impact.Logger, so an Analyzer's Logger is handed straight to the impact
// Analyzer it constructs for enrichment.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type ptermLogger struct {
	logger pterm.Logger
}

// NewLogger returns a Logger backed by pterm.DefaultLogger.
func NewLogger() Logger {
	return &ptermLogger{logger: pterm.DefaultLogger}
}

func (l *ptermLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args))
}

func (l *ptermLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, l.logger.Args(args))
}

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return noopLogger{} }

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}
