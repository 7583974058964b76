package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "kanjimatch.kdb", cfg.DatabasePath)
	require.Equal(t, 8787, cfg.Port)
	require.Equal(t, 5, cfg.TopN)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kanjimatch.yaml")
	doc := `database: /var/lib/kanjimatch/ref.kdb
port: 9000
auth_secret: hunter2
watch_database: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/kanjimatch/ref.kdb", cfg.DatabasePath)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "hunter2", cfg.AuthSecret)
	require.True(t, cfg.WatchDatabase)
	// fields the file omits keep their defaults
	require.Equal(t, 5, cfg.TopN)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kanjimatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}
