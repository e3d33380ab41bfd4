// Package ceph exposes a CephFS filesystem as a volume through libcephfs.
//
// The real implementation needs the Ceph client libraries and is compiled
// only with the "ceph" build tag. Without it Connect reports
// volume.ErrNotSupported.
package ceph

// Config holds CephFS volume options.
type Config struct {
	// ClientID is the cephx user without the "client." prefix.
	ClientID string `mapstructure:"client_id"`

	// ConfigFile is the ceph.conf path. Empty uses the library default search.
	ConfigFile string `mapstructure:"config_file"`

	// Keyring overrides the keyring path.
	Keyring string `mapstructure:"keyring"`

	// MonHost overrides mon_host from the config file.
	MonHost string `mapstructure:"mon_host"`

	// Filesystem selects the CephFS filesystem. Defaults to the volume name.
	Filesystem string `mapstructure:"filesystem"`

	// Root mounts a subdirectory instead of the filesystem root.
	Root string `mapstructure:"root"`
}
