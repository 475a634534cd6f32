package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/oshanjarow/fellowship-tracker/pkg/digest"
	"github.com/oshanjarow/fellowship-tracker/pkg/scraper"
	"github.com/oshanjarow/fellowship-tracker/pkg/site"
)

// ServerConfig holds the settings for the local preview server.
type ServerConfig struct {
	ServerAddr string `json:"server_addr"`
	LogLevel   string `json:"log_level"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr: ":8080",
		LogLevel:   "info",
	}
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server  *ServerConfig   `json:"server_config"`
	Site    *site.Config    `json:"site_config"`
	Scraper *scraper.Config `json:"scraper_config"`
	Digest  *digest.Config  `json:"digest_config"`
}

// DefaultConfig creates a complete configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server:  DefaultServerConfig(),
		Site:    site.DefaultConfig(),
		Scraper: scraper.DefaultConfig(),
		Digest:  digest.DefaultConfig(),
	}
}

// LoadConfig reads the configuration from the given path. If the file
// doesn't exist, it is created with default values so the user has
// something to edit.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err = SaveConfig(path, config); err != nil {
				return nil, fmt.Errorf("failed to write default config: %w", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveConfig writes the configuration to disk atomically.
func SaveConfig(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
