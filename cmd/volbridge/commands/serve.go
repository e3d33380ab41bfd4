package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/internal/logger"
	"github.com/marmos91/volbridge/internal/telemetry"
	"github.com/marmos91/volbridge/pkg/config"
	"github.com/marmos91/volbridge/pkg/server"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge in the foreground",
	Long: `Connect every configured share and serve the admin API until
interrupted.

Shares naming the same volume and path share one connection. With --watch
the share list and log level follow edits to the configuration file.

Examples:
  # Serve with the default config location
  volbridge serve

  # Follow config edits
  volbridge serve --config /etc/volbridge/config.yaml --watch

  # Override settings through the environment
  VOLBRIDGE_LOGGING_LEVEL=DEBUG volbridge serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Reload shares when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile := cmdutil.Flags.ConfigFile
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return err
	}
	if err := cmdutil.InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingShutdown, err := telemetry.Init(ctx, cfg.Tracing(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		// ctx is cancelled by now; flushing needs its own.
		if err := tracingShutdown(context.Background()); err != nil {
			logger.Error("Telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(cfg.Profiling(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("Profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("volbridge starting", "version", Version, "commit", Commit)
	logger.Info("Configuration loaded", "source", cmdutil.ConfigSource(configFile), "shares", len(cfg.Shares))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	var opts []server.Option
	if serveWatch {
		path := configFile
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		opts = append(opts, server.WithWatch(path))
	}

	if err := server.New(cfg, opts...).Run(ctx); err != nil {
		return err
	}
	logger.Info("volbridge stopped")
	return nil
}
