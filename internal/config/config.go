// Package config loads the application configuration from a config.toml
// beside the executable, with defaults when the file is absent.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the application configuration.
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	Retention RetentionConfig `toml:"retention"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig configures the data directory.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// RetentionConfig configures lifecycle housekeeping.
type RetentionConfig struct {
	// SuspendedDays is the default age threshold for cleaning suspended
	// controls, in days.
	SuspendedDays int `toml:"suspended_days"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20310,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Retention: RetentionConfig{
			SuspendedDays: 90,
		},
	}
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig reads config.toml from the executable's directory. A missing
// file yields the defaults; a malformed file is an error.
func LoadConfig() (*AppConfig, error) {
	cfg := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("OPTIA_DATA_DIR"); v != "" {
		cfg.Data.DataDir = v
	}
}

// SaveConfig writes the configuration back to config.toml.
func SaveConfig(cfg *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}

// EnsureDataDir creates the data directory and its subdirectories, returning
// the resolved path.
func EnsureDataDir(cfg *AppConfig) (string, error) {
	dataDir := cfg.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	for _, subdir := range []string{"uploads", "exports", "backups"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}
