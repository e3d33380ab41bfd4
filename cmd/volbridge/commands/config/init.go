package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/internal/bytesize"
	"github.com/marmos91/volbridge/internal/cli/prompt"
	"github.com/marmos91/volbridge/pkg/config"
	"github.com/marmos91/volbridge/pkg/volume/backends"
)

var (
	initForce          bool
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create a configuration file with one share.

Without --non-interactive the share and server settings are asked for;
otherwise the defaults are written: an in-memory share named "scratch"
and the admin API on port 8080.

Examples:
  # Interactive setup at the default location
  volbridge config init

  # Write defaults to a custom path, replacing any existing file
  volbridge config init --config ./volbridge.yaml --non-interactive --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "Write defaults without prompting")
}

// answers are the settings gathered by the init wizard.
type answers struct {
	LogLevel       string
	APIPort        int
	MetricsEnabled bool
	MetricsPort    int
	ShareName      string
	SharePath      string
	Volume         string
	Backend        string
	// Location is the backend's main option: root directory for local and
	// ceph, bucket for s3, capacity for memory.
	Location       string
}

// defaultAnswers mirrors config.GetDefaultConfig.
func defaultAnswers() answers {
	cfg := config.GetDefaultConfig()
	share := cfg.Shares[0]
	return answers{
		LogLevel:    cfg.Logging.Level,
		APIPort:     cfg.API.Port,
		MetricsPort: 9090,
		ShareName:   share.Name,
		SharePath:   share.Path,
		Backend:     share.Backend,
		Location:    fmt.Sprint(share.Options["capacity"]),
	}
}

// locationOption names the option Location is stored under.
func locationOption(backend string) (key, label string) {
	switch backend {
	case backends.Memory:
		return "capacity", "Capacity"
	case backends.S3:
		return "bucket", "Bucket"
	default:
		return "root", "Root directory"
	}
}

// buildConfig turns a into a validated configuration.
func buildConfig(a answers) (*config.Config, error) {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = a.LogLevel
	cfg.API.Enabled = true
	cfg.API.Port = a.APIPort
	cfg.Metrics.Enabled = a.MetricsEnabled
	if a.MetricsEnabled {
		cfg.Metrics.Port = a.MetricsPort
	}

	share := config.ShareConfig{
		Name:    a.ShareName,
		Path:    a.SharePath,
		Volume:  a.Volume,
		Backend: a.Backend,
	}
	if a.Location != "" {
		key, _ := locationOption(a.Backend)
		share.Options = map[string]any{key: a.Location}
	}
	cfg.Shares = []config.ShareConfig{share}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("configuration file already exists: %s\n\nUse --force to overwrite it", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	a := defaultAnswers()
	if !initNonInteractive {
		var err error
		if a, err = askAnswers(a); err != nil {
			if prompt.IsAborted(err) {
				return nil
			}
			return err
		}
	}

	cfg, err := buildConfig(a)
	if err != nil {
		return err
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	p.Success(fmt.Sprintf("Configuration written to %s", path))
	p.Println()
	p.Println("Start the server with:")
	p.Printf("  volbridge serve --config %s\n", path)
	return nil
}

func askAnswers(a answers) (answers, error) {
	var err error

	if a.ShareName, err = prompt.InputWithValidation("Share name", a.ShareName, prompt.ValidateShareName); err != nil {
		return a, err
	}
	if a.SharePath, err = prompt.InputWithValidation("Share path", a.SharePath, prompt.ValidateAbsPath); err != nil {
		return a, err
	}
	if a.Volume, err = prompt.Input("Volume (empty: share name)", a.Volume); err != nil {
		return a, err
	}

	opts := make([]prompt.Option, 0, len(backends.Names()))
	for _, name := range backends.Names() {
		opts = append(opts, prompt.Option{Label: name, Value: name, Description: backendDescriptions[name]})
	}
	backend, err := prompt.Select("Backend", opts)
	if err != nil {
		return a, err
	}
	if backend != a.Backend {
		a.Location = ""
	}
	a.Backend = backend

	_, label := locationOption(a.Backend)
	validateLocation := prompt.NonEmpty
	if a.Backend == backends.Memory {
		validateLocation = func(s string) error {
			_, err := bytesize.Parse(s)
			return err
		}
	}
	if a.Location, err = prompt.InputWithValidation(label, a.Location, validateLocation); err != nil {
		return a, err
	}

	if a.LogLevel, err = prompt.Select("Log level", []prompt.Option{
		{Label: "INFO", Value: "INFO"},
		{Label: "DEBUG", Value: "DEBUG"},
		{Label: "WARN", Value: "WARN"},
		{Label: "ERROR", Value: "ERROR"},
	}); err != nil {
		return a, err
	}
	if a.APIPort, err = prompt.InputPort("Admin API port", a.APIPort); err != nil {
		return a, err
	}
	if a.MetricsEnabled, err = prompt.Confirm("Enable Prometheus metrics", false); err != nil {
		return a, err
	}
	if a.MetricsEnabled {
		if a.MetricsPort, err = prompt.InputPort("Metrics port", a.MetricsPort); err != nil {
			return a, err
		}
	}
	a.Volume = strings.TrimSpace(a.Volume)
	return a, nil
}

var backendDescriptions = map[string]string{
	backends.Memory: "In-process volume, lost on restart",
	backends.Local:  "Directory on the local file system",
	backends.S3:     "Objects in an S3-compatible bucket",
	backends.Ceph:   "CephFS through libcephfs",
}
