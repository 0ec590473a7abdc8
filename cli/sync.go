// ABOUTME: Sync CLI commands for charm- and badger-backed stores
// ABOUTME: Routes status, now, and wipe to the charm client and toggles auto-sync in config
package cli

import (
	"fmt"

	"github.com/harperreed/pursuit/charm"
	"github.com/harperreed/pursuit/config"
	"github.com/harperreed/pursuit/db"
)

// SyncCommand dispatches sync subcommands.
//
//	sync status
//	sync now [--verbose]
//	sync wipe [--confirm]
//	sync auto on|off
func SyncCommand(store db.Store, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sync status|now|wipe|auto")
	}

	if args[0] == "auto" {
		return syncAuto(cfg, args[1:])
	}

	kv, ok := store.(*db.KVStore)
	if !ok {
		return fmt.Errorf("sync needs a charm:// or badger:// store (current: %s)", cfg.StoreDSN)
	}
	client := kv.Client()

	switch args[0] {
	case "status":
		return charm.SyncStatusCommand(client, args[1:])
	case "now":
		return charm.SyncNowCommand(client, args[1:])
	case "wipe":
		return charm.SyncWipeCommand(client, args[1:])
	default:
		return fmt.Errorf("unknown sync command: %s", args[0])
	}
}

func syncAuto(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(stdout, "Auto-sync: %v\n", cfg.AutoSync)
		return nil
	}
	var enabled bool
	switch args[0] {
	case "on", "true":
		enabled = true
	case "off", "false":
	default:
		return fmt.Errorf("usage: sync auto on|off")
	}
	if err := cfg.SetAutoSync(enabled); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(stdout, "✓ Auto-sync %s\n", args[0])
	return nil
}
