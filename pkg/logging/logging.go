// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the small leveled logger packline's CLI
// writes provisioning progress to, plus the ProgressTracker adapter
// that turns per-feature-pack layout events into log lines.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"packline/pkg/location"
)

// Logger writes timestamped, printf-style log lines. Debug lines are
// emitted only when the logger is verbose; error lines go to the error
// writer so they survive a piped stdout.
type Logger struct {
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

// NewLogger returns a logger writing to stdout/stderr. verbose enables
// debug lines.
func NewLogger(verbose bool) *Logger {
	return &Logger{verbose: verbose, out: os.Stdout, errOut: os.Stderr}
}

func (l *Logger) line(w io.Writer, level, format string, args ...any) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "[%s] %s: %s\n", ts, level, fmt.Sprintf(format, args...))
}

// Debugf logs a debug line when the logger is verbose.
func (l *Logger) Debugf(format string, args ...any) {
	if l.verbose {
		l.line(l.out, "DEBUG", format, args...)
	}
}

// Infof logs an info line.
func (l *Logger) Infof(format string, args ...any) {
	l.line(l.out, "INFO", format, args...)
}

// Errorf logs an error line to the error writer.
func (l *Logger) Errorf(format string, args ...any) {
	l.line(l.errOut, "ERROR", format, args...)
}

// ProgressTracker adapts a Logger into a layout progress tracker,
// logging one line per materialised feature pack and a summary once the
// traversal finishes. It satisfies resolvers.ProgressTracker without
// this package importing resolvers back (only the location type it
// needs).
type ProgressTracker struct {
	log   *Logger
	count int
}

// NewProgressTracker wraps log so it can be handed to a LayoutFactory
// as its progress tracker.
func NewProgressTracker(log *Logger) *ProgressTracker {
	return &ProgressTracker{log: log}
}

// OnFeaturePack logs that producer was laid out.
func (p *ProgressTracker) OnFeaturePack(producer location.ProducerSpec) {
	p.count++
	p.log.Infof("laid out feature pack %s (%d)", producer, p.count)
}

// OnComplete logs a summary of the finished traversal.
func (p *ProgressTracker) OnComplete() {
	p.log.Infof("layout complete: %d feature packs", p.count)
}
