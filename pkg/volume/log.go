package volume

import (
	"io"
	"log/slog"
	"path"

	"github.com/marmos91/volbridge/internal/logger"
)

// OpenLog opens the per-connection log sink described by cfg.
func OpenLog(cfg ConnectConfig) (*slog.Logger, io.Closer, error) {
	l, c, err := logger.OpenSink(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return l.With(logger.KeyBackend, cfg.Backend, logger.KeyVolume, cfg.Volume), c, nil
}

// CleanPath normalizes a volume path to an absolute, slash-separated form.
func CleanPath(p string) string {
	return path.Clean("/" + p)
}
