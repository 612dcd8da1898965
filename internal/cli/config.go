package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigEnv overrides the config file location.
const ConfigEnv = "SEGMENTCTL_CONFIG"

// Config represents the CLI configuration
type Config struct {
	DefaultProfile string             `yaml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is a named server the CLI can talk to.
type Profile struct {
	Server string `yaml:"server"`
	APIKey string `yaml:"api_key,omitempty"`
	Locale string `yaml:"locale,omitempty"`
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".segmentctl", "config.yaml"), nil
}

// LoadConfig loads the configuration from file. A missing file yields a
// config with a single local profile.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// InitConfig writes the default config file.
func InitConfig() error {
	return SaveConfig(defaultConfig())
}

// ResolveProfile picks the server settings for a command.
// Priority: command flags > environment variables > config file.
func ResolveProfile(name, serverFlag, apiKeyFlag string) (*Profile, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = cfg.DefaultProfile
	}

	p, ok := cfg.Profiles[name]
	if !ok && serverFlag == "" && os.Getenv("SEGMENTCTL_SERVER") == "" {
		return nil, fmt.Errorf("profile '%s' not found in config", name)
	}

	p.Server = firstNonEmpty(serverFlag, os.Getenv("SEGMENTCTL_SERVER"), p.Server)
	p.APIKey = firstNonEmpty(apiKeyFlag, os.Getenv("SEGMENTCTL_API_KEY"), p.APIKey)

	if p.Server == "" {
		return nil, fmt.Errorf("server must be configured for profile '%s'", name)
	}
	return &p, nil
}

func defaultConfig() *Config {
	return &Config{
		DefaultProfile: "local",
		Profiles: map[string]Profile{
			"local": {Server: "http://localhost:8080", APIKey: "admin-123", Locale: "en"},
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
