// Package cmdutil holds state and helpers shared by volbridge subcommands.
package cmdutil

import (
	"fmt"
	"os"

	"github.com/marmos91/volbridge/internal/cli/output"
	"github.com/marmos91/volbridge/internal/logger"
	"github.com/marmos91/volbridge/pkg/apiclient"
	"github.com/marmos91/volbridge/pkg/config"
)

// Flags holds the persistent flag values of the root command.
var Flags = &GlobalFlags{}

// GlobalFlags are the flags every subcommand sees.
type GlobalFlags struct {
	ConfigFile string
	ServerURL  string
	Output     string
	NoColor    bool
}

// Printer returns a printer for the --output format.
func Printer() (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	p := output.Stdout(format)
	if Flags.NoColor {
		p = output.NewPrinter(os.Stdout, format, false)
	}
	return p, nil
}

// Client returns an API client for the server selected by ServerURL.
func Client() *apiclient.Client {
	return apiclient.New(ServerURL())
}

// ServerURL resolves the admin API address: the --server flag, then
// VOLBRIDGE_SERVER, then the API port of the loaded configuration, then
// apiclient.DefaultURL.
func ServerURL() string {
	if Flags.ServerURL != "" {
		return Flags.ServerURL
	}
	if env := os.Getenv("VOLBRIDGE_SERVER"); env != "" {
		return env
	}
	if Flags.ConfigFile != "" || config.DefaultConfigExists() {
		if cfg, err := config.Load(Flags.ConfigFile); err == nil && cfg.API.Port > 0 {
			return fmt.Sprintf("http://localhost:%d", cfg.API.Port)
		}
	}
	return apiclient.DefaultURL
}

// InitLogger configures the process logger from cfg.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ConfigSource describes where the configuration was loaded from.
func ConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
