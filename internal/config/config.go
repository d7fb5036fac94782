package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "tikget"

	// TokenEnvVar overrides the configured bot token when set
	TokenEnvVar = "TIKGET_BOT_TOKEN"

	// DefaultMaxFileSize is the Telegram bot upload limit (50 MB)
	DefaultMaxFileSize = 50 * 1024 * 1024
)

// ConfigDir returns the standard config directory for tikget.
// Windows: %APPDATA%\tikget\
// macOS/Linux: ~/.config/tikget/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/tikget/config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

type Config struct {
	// Telegram bot token; the TIKGET_BOT_TOKEN env var takes precedence
	BotToken string `yaml:"bot_token,omitempty"`

	// Language for bot replies (e.g., "en", "zh")
	Language string `yaml:"language,omitempty"`

	// MaxFileSize is the upload size gate in bytes (default: 50 MB)
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`

	// API endpoint overrides, mainly for testing
	API APIConfig `yaml:"api,omitempty"`

	// Status server configuration (disabled when port is 0)
	Server ServerConfig `yaml:"server,omitempty"`
}

// APIConfig holds download API endpoint overrides
type APIConfig struct {
	// TikWM is the primary download API endpoint
	TikWM string `yaml:"tikwm,omitempty"`

	// Fallback is the direct TikTok play endpoint
	Fallback string `yaml:"fallback,omitempty"`
}

// ServerConfig holds HTTP status server settings
type ServerConfig struct {
	// Port is the HTTP listen port; 0 disables the status server
	Port int `yaml:"port,omitempty"`
}

// Token returns the bot token, preferring the environment variable
func (c *Config) Token() string {
	if tok := os.Getenv(TokenEnvVar); tok != "" {
		return tok
	}
	return c.BotToken
}

// SizeLimit returns the configured size gate, falling back to the default
func (c *Config) SizeLimit() int64 {
	if c.MaxFileSize > 0 {
		return c.MaxFileSize
	}
	return DefaultMaxFileSize
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Language:    "en",
		MaxFileSize: DefaultMaxFileSize,
	}
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config from ~/.config/tikget/config.yml
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to ~/.config/tikget/config.yml
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Token goes in 0600: it is a secret
	header := "# tikget configuration file\n# Run 'tikget init' to regenerate with defaults\n\n"
	return os.WriteFile(configPath, append([]byte(header), data...), 0600)
}

// SavePath returns the path the config is saved to, for display purposes
func SavePath() string {
	path, err := ConfigPath()
	if err != nil {
		return ConfigFileName
	}
	return path
}

// LoadOrDefault loads config if it exists, otherwise returns defaults
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}
