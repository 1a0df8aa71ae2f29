// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/beacon-labs/beacon-installer/internal/branding"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFileName = "installer.log"

// Options controls Setup.
type Options struct {
	Verbosity int       // 0 warn, 1 info, 2 debug, 3+ trace
	Console   io.Writer // defaults to os.Stderr
	NoColor   bool
	File      bool // also append to the log file under the XDG state home
}

// Level maps a -v count to a log level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup replaces the global logger. The returned closer releases the log
// file, if one was opened. When the log file cannot be opened, logging falls
// back to the console and a warning is logged.
func Setup(opts Options) io.Closer {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	}}

	var closer io.Closer = nopCloser{}
	var fileErr error
	var path string
	if opts.File {
		var f *os.File
		path, f, fileErr = openLogFile()
		if fileErr == nil {
			writers = append(writers, f)
			closer = f
		}
	}

	logger := zerolog.New(io.MultiWriter(writers...)).
		Level(Level(opts.Verbosity)).
		With().Timestamp().Logger()
	if opts.Verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	if fileErr != nil {
		log.Warn().Err(fileErr).Msg("Failed to open log file, logging to console only")
	}
	log.Debug().Int("verbosity", opts.Verbosity).Str("logFile", path).Msg("Logger initialized")
	return closer
}

// Component returns a child of the global logger tagged with name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// FilePath returns the log file location, creating its directory.
func FilePath() (string, error) {
	path, err := xdg.StateFile(filepath.Join(branding.LogDir(), logFileName))
	if err != nil {
		return "", fmt.Errorf("resolving log file: %w", err)
	}
	return path, nil
}

func openLogFile() (string, *os.File, error) {
	path, err := FilePath()
	if err != nil {
		return "", nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return path, nil, fmt.Errorf("opening log file: %w", err)
	}
	return path, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
