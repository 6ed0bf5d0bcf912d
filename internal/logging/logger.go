// Package logging configures the run logger: structured records written to
// both the console and a timestamped file under a log directory, named after
// the run. The logger owns the file; initialize it once per run and close it
// on teardown.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const fileTimestampLayout = "2006-01-02_15-04-05"

// Option configures RunLogger creation.
type Option func(*newOptions)

type newOptions struct {
	directory string
	console   io.Writer
	level     log.Level
	now       func() time.Time
}

// WithDirectory sets the directory log files are written to.
func WithDirectory(directory string) Option {
	return func(opts *newOptions) {
		if trimmed := strings.TrimSpace(directory); trimmed != "" {
			opts.directory = trimmed
		}
	}
}

// WithConsole sets the console stream, which defaults to stdout.
func WithConsole(console io.Writer) Option {
	return func(opts *newOptions) {
		if console != nil {
			opts.console = console
		}
	}
}

// WithLevel sets the minimum level for emitted records.
func WithLevel(level log.Level) Option {
	return func(opts *newOptions) {
		opts.level = level
	}
}

// WithClock overrides the clock used for the log file timestamp.
func WithClock(now func() time.Time) Option {
	return func(opts *newOptions) {
		if now != nil {
			opts.now = now
		}
	}
}

// RunLogger writes structured records for one automation run to the console
// and a log file.
type RunLogger struct {
	Logger *log.Logger
	file   *os.File
	path   string
}

// New creates the log directory if needed, opens a timestamped log file named
// after runName, and returns a logger writing to both the file and the
// console.
func New(runName string, options ...Option) (*RunLogger, error) {
	runName = strings.TrimSpace(runName)
	if runName == "" {
		runName = "sapauto"
	}
	resolved := resolveOptions(options)

	if err := os.MkdirAll(resolved.directory, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory %q: %w", resolved.directory, err)
	}

	timestamp := resolved.now().Format(fileTimestampLayout)
	path := filepath.Join(resolved.directory, fmt.Sprintf("%s_%s.log", runName, timestamp))
	// #nosec G304 -- path is built from the caller-supplied log directory.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}

	logger := log.NewWithOptions(io.MultiWriter(resolved.console, file), log.Options{
		Level:           resolved.level,
		Prefix:          runName,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})

	runLogger := &RunLogger{Logger: logger, file: file, path: path}
	runLogger.Logger.Info("logging configured", "log_file", path)
	return runLogger, nil
}

// Path returns the log file path.
func (r *RunLogger) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Close flushes and closes the log file.
func (r *RunLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func resolveOptions(options []Option) newOptions {
	resolved := newOptions{
		directory: "Logs",
		console:   os.Stdout,
		level:     log.InfoLevel,
		now:       time.Now,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&resolved)
	}
	return resolved
}
