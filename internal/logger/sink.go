package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Storage-client verbosity scale used by per-volume log sinks.
const (
	VerbosityDefault  = -1
	VerbosityNone     = 0
	VerbosityEmerg    = 1
	VerbosityAlert    = 2
	VerbosityCritical = 3
	VerbosityError    = 4
	VerbosityWarning  = 5
	VerbosityNotice   = 6
	VerbosityInfo     = 7
	VerbosityDebug    = 8
	VerbosityTrace    = 9
)

// levelOff sits above every level a sink is asked to write.
const levelOff = slog.Level(1 << 10)

// VerbosityLevel maps a storage-client verbosity to a slog level. -1 selects
// info, 0 disables output.
func VerbosityLevel(v int) slog.Level {
	switch {
	case v == VerbosityNone:
		return levelOff
	case v < 0:
		return slog.LevelInfo
	case v <= VerbosityError:
		return slog.LevelError
	case v == VerbosityWarning:
		return slog.LevelWarn
	case v <= VerbosityInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSink opens the log destination of a single volume connection. An
// empty path or "-" writes to stderr. Any other path is opened for append and
// must be closed by the caller through the returned io.Closer.
func OpenSink(path string, verbosity int) (*slog.Logger, io.Closer, error) {
	format, _ := currentFormat.Load().(string)
	level := VerbosityLevel(verbosity)

	if path == "" || path == "-" {
		return slog.New(newHandler(os.Stderr, format, level, false)), nopCloser{}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open volume log %q: %w", path, err)
	}
	return slog.New(newHandler(f, format, level, false)), f, nil
}
