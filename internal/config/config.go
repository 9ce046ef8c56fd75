// Package config loads engine settings from config.yaml, environment
// variables, and flags via viper, following the same directory-resolution
// precedence as internal/paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/biostage/biostage/internal/paths"
	"github.com/biostage/biostage/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	keyStorageRoot    = "storage_root"
	keyCompress       = "compress"
	keyChunkThreshold = "chunk_threshold"
	keyChunkSize      = "chunk_size"
	keyCompressMin    = "compress_min"
	keyDescriptorFile = "descriptor_file"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# stageql configuration

# Directory holding each compartment's SQLite file (overridable by --data-dir).
# storage_root:

# Whether oversized chunked content is gzip-compressed before storage.
compress: true

# Byte thresholds governing the chunk store.
chunk_threshold: 32768
chunk_size: 16384
compress_min: 8192

# Optional path to a type-graph description file.
# descriptor_file:
`

// Flags carries the command-line overrides a caller resolved from cobra
// flags, taking precedence over config.yaml and environment variables.
type Flags struct {
	ConfigDir      string
	DataDir        string
	DescriptorFile string
}

// Loaded is the fully-resolved configuration: the engine Config plus the
// resolved descriptor file path (empty when none is configured).
type Loaded struct {
	Config         types.Config
	DescriptorFile string
}

// Load resolves the configuration directory, ensures a default config.yaml
// exists there, reads it through viper, and folds in flag overrides. A
// missing config.yaml is not an error: the engine falls back to defaults.
func Load(flags Flags) (Loaded, error) {
	configDir, err := paths.ResolveConfigDir(flags.ConfigDir)
	if err != nil {
		return Loaded{}, fmt.Errorf("resolving config directory: %w", err)
	}
	if err := ensureConfigDir(configDir); err != nil {
		return Loaded{}, fmt.Errorf("ensuring config directory: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return Loaded{}, fmt.Errorf("writing default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(keyCompress, true)
	v.SetDefault(keyChunkThreshold, types.DefaultChunkThreshold)
	v.SetDefault(keyChunkSize, types.DefaultChunkSize)
	v.SetDefault(keyCompressMin, types.DefaultCompressMin)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("stageql")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Loaded{}, fmt.Errorf("reading config: %w", err)
		}
	}

	dataDir, err := paths.ResolveDataDir(flags.DataDir, v.GetString(keyStorageRoot))
	if err != nil {
		return Loaded{}, fmt.Errorf("resolving data directory: %w", err)
	}

	cfg := types.Config{
		StorageRoot:    dataDir,
		Compress:       v.GetBool(keyCompress),
		ChunkThreshold: v.GetInt(keyChunkThreshold),
		ChunkSize:      v.GetInt(keyChunkSize),
		CompressMin:    v.GetInt(keyCompressMin),
	}
	if err := cfg.Validate(); err != nil {
		return Loaded{}, err
	}

	descriptorFile := flags.DescriptorFile
	if descriptorFile == "" {
		descriptorFile = v.GetString(keyDescriptorFile)
	}

	return Loaded{Config: cfg, DescriptorFile: descriptorFile}, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
