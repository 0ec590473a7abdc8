// ABOUTME: Application configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Holds the store DSN, acting user, staleness threshold, logging level, and web settings
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/harperreed/pursuit/charm"
	"github.com/joho/godotenv"
)

const (
	// AppName names the XDG data directory.
	AppName = "pursuit"

	// ConfigFileName is where we store local config.
	ConfigFileName = "config.json"

	DefaultStaleThresholdDays = 14
	DefaultShareLinkTTL       = 30 * 24 * time.Hour
	DefaultListenAddr         = ":8080"
	DefaultLogLevel           = "info"
)

// Config holds application settings.
type Config struct {
	StoreDSN           string        `json:"store_dsn,omitempty"`
	UserID             string        `json:"user_id,omitempty"`
	StaleThresholdDays int           `json:"stale_threshold_days,omitempty"`
	LogLevel           string        `json:"log_level,omitempty"`
	ShareLinkTTL       time.Duration `json:"share_link_ttl,omitempty"`
	ListenAddr         string        `json:"listen_addr,omitempty"`

	// CharmHost and AutoSync apply to charm:// stores.
	CharmHost string `json:"charm_host,omitempty"`
	AutoSync  bool   `json:"auto_sync"`

	path string
}

// DataDir returns the XDG data directory for pursuit.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(DataDir(), ConfigFileName)
}

// DefaultDSN is the on-disk SQLite database under the data directory.
func DefaultDSN() string {
	return "sqlite://" + filepath.Join(DataDir(), "pursuit.db")
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		StoreDSN:           DefaultDSN(),
		UserID:             defaultUserID(),
		StaleThresholdDays: DefaultStaleThresholdDays,
		LogLevel:           DefaultLogLevel,
		ShareLinkTTL:       DefaultShareLinkTTL,
		ListenAddr:         DefaultListenAddr,
		CharmHost:          charm.DefaultCharmHost,
		AutoSync:           true,
		path:               Path(),
	}
}

func defaultUserID() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// Load reads the default config file, then .env, then PURSUIT_* variables.
func Load() (*Config, error) {
	// Missing .env is normal
	_ = godotenv.Load()
	return LoadFrom(Path())
}

// LoadFrom reads config from path. A missing file yields defaults.
// Environment variables override file values:
// - PURSUIT_STORE_DSN
// - PURSUIT_USER_ID
// - PURSUIT_STALE_DAYS
// - PURSUIT_LOG_LEVEL
// - PURSUIT_LISTEN_ADDR
// - PURSUIT_AUTO_SYNC.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if dsn := os.Getenv("PURSUIT_STORE_DSN"); dsn != "" {
		cfg.StoreDSN = dsn
	}
	if userID := os.Getenv("PURSUIT_USER_ID"); userID != "" {
		cfg.UserID = userID
	}
	if days := os.Getenv("PURSUIT_STALE_DAYS"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return fmt.Errorf("PURSUIT_STALE_DAYS must be a positive integer, got %q", days)
		}
		cfg.StaleThresholdDays = n
	}
	if level := os.Getenv("PURSUIT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if addr := os.Getenv("PURSUIT_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if autoSync := os.Getenv("PURSUIT_AUTO_SYNC"); autoSync != "" {
		cfg.AutoSync = autoSync == "true" || autoSync == "1"
	}
	return nil
}

func (c *Config) fillDefaults() {
	if c.StoreDSN == "" {
		c.StoreDSN = DefaultDSN()
	}
	if c.UserID == "" {
		c.UserID = defaultUserID()
	}
	if c.StaleThresholdDays <= 0 {
		c.StaleThresholdDays = DefaultStaleThresholdDays
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ShareLinkTTL <= 0 {
		c.ShareLinkTTL = DefaultShareLinkTTL
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.CharmHost == "" {
		c.CharmHost = charm.DefaultCharmHost
	}
}

// Charm returns the connection settings for charm:// stores.
func (c *Config) Charm() *charm.Config {
	return &charm.Config{
		Host:     c.CharmHost,
		AppName:  charm.DefaultAppName,
		AutoSync: c.AutoSync,
	}
}

// Save persists the config with restricted permissions.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SetAutoSync enables or disables auto-sync and saves.
func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
