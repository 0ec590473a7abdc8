// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Backs each client with a BadgerDB in the test's temp directory
package charm

import (
	"path/filepath"
	"testing"
)

// NewTestClient creates a local client that needs no charm server. The
// database is closed when the test finishes.
func NewTestClient(t testing.TB) *Client {
	t.Helper()

	c, err := OpenLocal(filepath.Join(t.TempDir(), DefaultAppName))
	if err != nil {
		t.Fatalf("Failed to open test KV: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return c
}
