// Package config provides configuration management for loft-nav.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// APIConfig holds the connection settings and browser tuning knobs shared by
// the CLI and the embedding desktop clients.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\loftdrive\apiconfig
//   - Unix: ~/.config/loftdrive/apiconfig
//
// INI format:
//
//	[loftdrive]
//	platform_url = https://app.loftdrive.io
//	api_key = <token>
//
//	[loftnav.browser]
//	page_size = 25
//	request_timeout_seconds = 30
type APIConfig struct {
	// Loftdrive connection settings
	PlatformURL string `ini:"platform_url"`
	APIKey      string `ini:"api_key"`

	// Browser settings
	Browser BrowserConfig
}

// BrowserConfig contains tuning knobs for the navigation engine.
type BrowserConfig struct {
	// PageSize is the file page size requested per folder.
	// Minimum: 1, Maximum: 200, Default: 25
	PageSize int `ini:"page_size"`

	// RequestTimeoutSeconds bounds each loader call.
	// Default: 30
	RequestTimeoutSeconds int `ini:"request_timeout_seconds"`
}

// Validation errors
var (
	ErrMissingPlatformURL = errors.New("platform_url is required")
	ErrMissingAPIKey      = errors.New("api_key is required")
	ErrInvalidPageSize    = errors.New("page_size must be between 1 and 200")
	ErrInvalidTimeout     = errors.New("request_timeout_seconds must be between 1 and 600")
)

// EnvAPIKey is the environment variable that overrides the configured API key.
const EnvAPIKey = "LOFTDRIVE_API_KEY"

// DefaultAPIConfigPath returns the default path for the apiconfig file.
func DefaultAPIConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", "loftdrive")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "loftdrive")
	}

	return filepath.Join(configDir, "apiconfig"), nil
}

// NewAPIConfig creates a new APIConfig with default values.
func NewAPIConfig() *APIConfig {
	return &APIConfig{
		PlatformURL: "https://app.loftdrive.io",
		Browser: BrowserConfig{
			PageSize:              25,
			RequestTimeoutSeconds: 30,
		},
	}
}

// LoadAPIConfig loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no
// error. The LOFTDRIVE_API_KEY environment variable, when set, overrides the
// stored API key.
func LoadAPIConfig(path string) (*APIConfig, error) {
	cfg := NewAPIConfig()

	if path == "" {
		var err error
		path, err = DefaultAPIConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load apiconfig: %w", err)
	}

	loftSection := iniFile.Section("loftdrive")
	cfg.PlatformURL = loftSection.Key("platform_url").MustString(cfg.PlatformURL)
	cfg.APIKey = loftSection.Key("api_key").String()

	browserSection := iniFile.Section("loftnav.browser")
	cfg.Browser.PageSize = browserSection.Key("page_size").MustInt(25)
	cfg.Browser.RequestTimeoutSeconds = browserSection.Key("request_timeout_seconds").MustInt(30)

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *APIConfig) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.APIKey = key
	}
}

// SaveAPIConfig saves configuration to an INI file.
// Creates parent directories if they don't exist. The API key is stored in
// the file, so it is written with user-only permissions.
func SaveAPIConfig(cfg *APIConfig, path string) error {
	if path == "" {
		var err error
		path, err = DefaultAPIConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	loftSection, err := iniFile.NewSection("loftdrive")
	if err != nil {
		return fmt.Errorf("failed to create loftdrive section: %w", err)
	}
	loftSection.Key("platform_url").SetValue(cfg.PlatformURL)
	loftSection.Key("api_key").SetValue(cfg.APIKey)

	browserSection, err := iniFile.NewSection("loftnav.browser")
	if err != nil {
		return fmt.Errorf("failed to create browser section: %w", err)
	}
	browserSection.Key("page_size").SetValue(fmt.Sprintf("%d", cfg.Browser.PageSize))
	browserSection.Key("request_timeout_seconds").SetValue(fmt.Sprintf("%d", cfg.Browser.RequestTimeoutSeconds))

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// API key is sensitive
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is usable.
func (cfg *APIConfig) Validate() error {
	if strings.TrimSpace(cfg.PlatformURL) == "" {
		return ErrMissingPlatformURL
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if cfg.Browser.PageSize < 1 || cfg.Browser.PageSize > 200 {
		return ErrInvalidPageSize
	}
	if cfg.Browser.RequestTimeoutSeconds < 1 || cfg.Browser.RequestTimeoutSeconds > 600 {
		return ErrInvalidTimeout
	}
	return nil
}
