// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: Status, manual sync, and wipe for the KV-backed engagement store
package charm

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// SyncStatusCommand shows current sync configuration and status.
func SyncStatusCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ExitOnError)
	_ = fs.Parse(args)

	return showSyncStatus(os.Stdout, c)
}

func showSyncStatus(w io.Writer, c *Client) error {
	cfg := c.Config()
	fmt.Fprintln(w, "Charm Sync Status")
	fmt.Fprintln(w, "─────────────────")
	if !c.Remote() {
		fmt.Fprintln(w, "Server:    (local only)")
	} else {
		fmt.Fprintf(w, "Server:    %s\n", cfg.Host)
	}
	fmt.Fprintf(w, "Database:  %s\n", cfg.AppName)
	fmt.Fprintf(w, "Auto-sync: %v\n", cfg.AutoSync)

	if c.Remote() {
		id, err := c.ID()
		if err != nil {
			fmt.Fprintln(w, "\nStatus: Not connected")
		} else {
			fmt.Fprintln(w, "\nStatus: Connected to Charm Cloud")
			fmt.Fprintf(w, "ID:        %s\n", id)
		}
	}

	keys, err := c.Keys()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	fmt.Fprintf(w, "Keys:      %d\n", len(keys))
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	_ = fs.Parse(args)

	if !c.Remote() {
		fmt.Println("Local store: nothing to sync")
		return nil
	}

	if *verbose {
		fmt.Println("Syncing with server...")
	}

	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if *verbose {
		fmt.Println("✓ Sync complete")
	} else {
		fmt.Println("✓ Synced")
	}
	return nil
}

// SyncWipeCommand completely resets the KV store
// WARNING: This deletes all local data!
func SyncWipeCommand(c *Client, args []string) error {
	fs := flag.NewFlagSet("sync wipe", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	_ = fs.Parse(args)

	if !*confirm {
		fmt.Println("WARNING: This will delete ALL engagement data in the KV store!")
		fmt.Println()
		fmt.Println("To confirm, run:")
		fmt.Println("  pursuit sync wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}

	fmt.Println("✓ All data wiped")
	return nil
}
