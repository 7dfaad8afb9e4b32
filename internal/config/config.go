package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server
	ServerPort string

	// Plex
	PlexUser string // optional, only process scrobbles from this account

	// Watchlist
	ListRefreshMinutes int // staleness window for the cached watching list

	// Paths
	DatabaseFile string // $CONFIG_DIR/anifunnel.db

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("ANIFUNNEL_PORT", "8000")
	viper.SetDefault("ANIFUNNEL_LIST_REFRESH_MINUTES", 10)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "anifunnel")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		ServerPort:         viper.GetString("ANIFUNNEL_PORT"),
		PlexUser:           viper.GetString("ANIFUNNEL_PLEX_USER"),
		ListRefreshMinutes: viper.GetInt("ANIFUNNEL_LIST_REFRESH_MINUTES"),
		DatabaseFile:       filepath.Join(configDir, "anifunnel.db"),
		LogLevel:           viper.GetString("LOG_LEVEL"),
		LogFormat:          viper.GetString("LOG_FORMAT"),
	}

	if config.ListRefreshMinutes < 1 {
		return nil, fmt.Errorf("ANIFUNNEL_LIST_REFRESH_MINUTES must be at least 1")
	}

	return config, nil
}
