package cmdutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/volbridge/internal/cli/output"
	"github.com/marmos91/volbridge/pkg/apiclient"
)

func resetFlags(t *testing.T) {
	t.Helper()
	saved := *Flags
	t.Cleanup(func() { *Flags = saved })
	*Flags = GlobalFlags{}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("VOLBRIDGE_SERVER", "")
}

func TestServerURLPrecedence(t *testing.T) {
	resetFlags(t)
	assert.Equal(t, apiclient.DefaultURL, ServerURL())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  enabled: true
  port: 9443
shares:
  - name: scratch
    path: /export/scratch
    backend: memory
`), 0600))
	Flags.ConfigFile = path
	assert.Equal(t, "http://localhost:9443", ServerURL())

	t.Setenv("VOLBRIDGE_SERVER", "http://gateway:8080")
	assert.Equal(t, "http://gateway:8080", ServerURL())

	Flags.ServerURL = "http://explicit:1"
	assert.Equal(t, "http://explicit:1", ServerURL())
}

func TestPrinterRejectsUnknownFormat(t *testing.T) {
	resetFlags(t)

	Flags.Output = "xml"
	_, err := Printer()
	assert.Error(t, err)

	Flags.Output = "yaml"
	Flags.NoColor = true
	p, err := Printer()
	require.NoError(t, err)
	assert.Equal(t, output.FormatYAML, p.Format())
	assert.False(t, p.ColorEnabled())
}

func TestConfigSource(t *testing.T) {
	resetFlags(t)
	assert.Equal(t, "defaults", ConfigSource(""))
	assert.Equal(t, "/etc/volbridge.yaml", ConfigSource("/etc/volbridge.yaml"))
}
