package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfigFile(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()

	loaded, err := Load(Flags{ConfigDir: configDir, DataDir: dataDir})
	require.NoError(t, err)
	assert.Equal(t, dataDir, loaded.Config.StorageRoot)
	assert.True(t, loaded.Config.Compress)
	assert.Equal(t, 32768, loaded.Config.ChunkThreshold)

	_, err = os.Stat(filepath.Join(configDir, "config.yaml"))
	assert.NoError(t, err)
}

func TestLoadReadsCompressFromConfigFile(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("compress: false\nchunk_threshold: 1024\n"), 0o644))

	loaded, err := Load(Flags{ConfigDir: configDir, DataDir: dataDir})
	require.NoError(t, err)
	assert.False(t, loaded.Config.Compress)
	assert.Equal(t, 1024, loaded.Config.ChunkThreshold)
}

func TestLoadFlagDataDirOverridesStorageRootInConfig(t *testing.T) {
	configDir := t.TempDir()
	configuredRoot := t.TempDir()
	flagRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("storage_root: "+configuredRoot+"\n"), 0o644))

	loaded, err := Load(Flags{ConfigDir: configDir, DataDir: flagRoot})
	require.NoError(t, err)
	assert.Equal(t, flagRoot, loaded.Config.StorageRoot)
}
