// Package config defines stagehand's configuration file and its defaults.
//
// Configuration is read from a TOML file and every value can be overridden
// through STAGEHAND_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"gitlab.com/stagehand/stagehand/internal/rotator"
)

// envPrefix is the prefix of the environment variables overriding the
// configuration file.
const envPrefix = "stagehand"

// Cfg is the root configuration for stagehand.
type Cfg struct {
	// ManagerDir is the plugin manager's installation directory. Bundles
	// are deployed into its plugins subdirectory.
	ManagerDir string `toml:"manager_dir" envconfig:"MANAGER_DIR"`
	// StagingDir, when set, is the root under which every deployment
	// allocates its private staging directory instead of using the platform
	// temporary directory. The stale walker cleans orphans under it.
	StagingDir string  `toml:"staging_dir" envconfig:"STAGING_DIR"`
	Logging    Logging `toml:"logging" envconfig:"LOG"`
	// DeployLog configures the rotating log recording deployments.
	DeployLog DeployLog `toml:"deploy_log" envconfig:"DEPLOY_LOG"`
}

// Logging contains the logging configuration.
type Logging struct {
	// Format is either "text" or "json".
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// DeployLog configures the rotating deployment log. An empty path disables
// it.
type DeployLog struct {
	Path        string `toml:"path"`
	MaxFileSize int64  `toml:"max_file_size"`
	FileCount   int    `toml:"file_count"`
}

// Load reads the TOML configuration at path, applies environment overrides
// on top and fills in defaults. An empty path loads defaults and overrides
// only.
func Load(path string) (Cfg, error) {
	cfg := Cfg{
		Logging: Logging{
			Format: "text",
			Level:  "info",
		},
		DeployLog: DeployLog{
			MaxFileSize: rotator.DefaultMaxFileSize,
			FileCount:   rotator.DefaultFileCount,
		},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Cfg{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return Cfg{}, fmt.Errorf("decode config: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Cfg{}, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Cfg{}, err
	}

	return cfg, nil
}

// PluginsDir returns the directory bundles are deployed into.
func (cfg Cfg) PluginsDir() string {
	return filepath.Join(cfg.ManagerDir, "plugins")
}

func (cfg Cfg) validate() error {
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q", cfg.Logging.Format)
	}

	if cfg.DeployLog.MaxFileSize <= 0 {
		return fmt.Errorf("deploy log max file size must be positive, got %d", cfg.DeployLog.MaxFileSize)
	}
	if cfg.DeployLog.FileCount <= 0 {
		return fmt.Errorf("deploy log file count must be positive, got %d", cfg.DeployLog.FileCount)
	}

	return nil
}
