// ABOUTME: Connection settings for the KV backend
// ABOUTME: Names the charm server, the KV database, and the auto-sync preference
package charm

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// DefaultAppName names the KV database.
	DefaultAppName = "pursuit"
)

// Config holds charm connection settings.
type Config struct {
	Host     string `json:"host,omitempty"`
	AppName  string `json:"app_name,omitempty"`
	AutoSync bool   `json:"auto_sync"`
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     DefaultCharmHost,
		AppName:  DefaultAppName,
		AutoSync: true,
	}
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	out.AutoSync = c.AutoSync
	if c.Host != "" {
		out.Host = c.Host
	}
	if c.AppName != "" {
		out.AppName = c.AppName
	}
	return out
}
