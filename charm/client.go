// ABOUTME: KV client wrapper with automatic sync support
// ABOUTME: Fronts either a charm cloud KV or a local BadgerDB behind one client type
package charm

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = badger.ErrKeyNotFound

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}

// backend is the subset of charm/kv.KV the client needs.
type backend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

// Client wraps a KV backend with config and sync helpers.
type Client struct {
	kv     backend
	config *Config
	remote bool
	closer func() error
	mu     sync.RWMutex
}

// Open connects to the charm cloud KV named by cfg.AppName.
func Open(cfg *Config) (*Client, error) {
	cfg = cfg.withDefaults()

	// Set charm host before opening KV
	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(cfg.AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{kv: db, config: cfg, remote: true}

	// Sync on startup to pull remote changes
	if cfg.AutoSync {
		_ = db.Sync()
	}
	return c, nil
}

// OpenLocal opens a BadgerDB in dir with no remote sync.
func OpenLocal(dir string) (*Client, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	cfg := DefaultConfig()
	cfg.AutoSync = false
	return &Client{kv: &badgerKV{db: db}, config: cfg, closer: db.Close}, nil
}

// Close releases the backend. Charm KV does not expose Close, so its
// BadgerDB is cleaned up on process exit.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer == nil {
		return nil
	}
	err := c.closer()
	c.closer = nil
	return err
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Remote reports whether the client syncs with a charm server.
func (c *Client) Remote() bool {
	return c.remote
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	if !c.remote {
		return "", errors.New("local store has no charm identity")
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// IsConnected checks if the client can reach charm cloud.
func (c *Client) IsConnected() bool {
	_, err := c.ID()
	return err == nil
}

// Sync performs a manual sync with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Get retrieves a value by key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Get(key)
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}

	// Sync while still holding lock to avoid race condition
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Delete removes a key and syncs if enabled.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil {
		return err
	}

	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Keys returns all keys.
func (c *Client) Keys() ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Keys()
}

// KeysWithPrefix returns all keys starting with the given prefix.
func (c *Client) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	allKeys, err := c.Keys()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range allKeys {
		if bytes.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// Reset wipes all data from the KV store (use with caution!)
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}
