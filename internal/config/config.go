package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Storage StorageConfig `mapstructure:"storage"`
	Device  DeviceConfig  `mapstructure:"device"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig holds hosted API configuration
type BackendConfig struct {
	URL    string `mapstructure:"url"`     // API base URL
	APIKey string `mapstructure:"api_key"` // Bearer token for API calls
	UserID string `mapstructure:"user_id"` // Resolved identity, empty = anonymous
}

// StorageConfig holds local storage locations
type StorageConfig struct {
	CacheDir     string `mapstructure:"cache_dir"`     // BoltDB cache location
	DownloadsDir string `mapstructure:"downloads_dir"` // Lesson video files
}

// DeviceConfig identifies this installation for local-only bookkeeping
type DeviceConfig struct {
	ID string `mapstructure:"id"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:    "",
			APIKey: "",
		},
		Storage: StorageConfig{
			CacheDir:     defaultCachePath(),
			DownloadsDir: defaultDownloadsPath(),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "edubridge", "edubridge.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "edubridge", "edubridge.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "edubridge")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "edubridge")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "edubridge", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "edubridge", "cache")
	}
}

// defaultDownloadsPath returns the default lesson video directory
func defaultDownloadsPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "edubridge", "downloads", "lessons")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "edubridge", "downloads", "lessons")
	}
}

// LoadConfig loads configuration from file and environment. A device id
// is generated and persisted on first load so it stays stable across
// restarts.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("EDUBRIDGE")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Device.ID == "" {
		cfg.Device.ID = uuid.NewString()
		if err := SaveConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to persist device id: %w", err)
		}
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("backend.url", cfg.Backend.URL)
	viper.Set("backend.api_key", cfg.Backend.APIKey)
	viper.Set("backend.user_id", cfg.Backend.UserID)

	viper.Set("storage.cache_dir", cfg.Storage.CacheDir)
	viper.Set("storage.downloads_dir", cfg.Storage.DownloadsDir)

	viper.Set("device.id", cfg.Device.ID)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearIdentity removes the stored user identity (sign-out) while
// preserving backend, storage and logging settings.
func ClearIdentity(cfg *Config) error {
	cfg.Backend.UserID = ""
	return SaveConfig(cfg)
}

// IsConfigured returns true if the backend URL and API key are set
func (c *Config) IsConfigured() bool {
	return c.Backend.URL != "" && c.Backend.APIKey != ""
}
