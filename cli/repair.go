// ABOUTME: Repair CLI command for half-created or drifted engagements
// ABOUTME: Backfills missing phases and owners and re-derives stored lastActivity and currentPhase
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/pursuit/engine"
)

// RepairCommand repairs one engagement, or every engagement with no argument.
func RepairCommand(ctx context.Context, coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	_ = fs.Parse(args)

	var results []engine.RepairResult
	if ref := fs.Arg(0); ref != "" {
		vm, err := findEngagement(coord, ref)
		if err != nil {
			return err
		}
		res, err := coord.Repair(ctx, vm.ID)
		if err != nil {
			return fmt.Errorf("failed to repair %s: %w", vm.Company, err)
		}
		results = append(results, res)
	} else {
		var err error
		if results, err = coord.RepairAll(ctx); err != nil {
			return fmt.Errorf("repair failed: %w", err)
		}
	}

	changed := 0
	for _, r := range results {
		if !r.Changed() {
			continue
		}
		changed++
		name := r.EngagementID
		if vm, ok := coord.Get(r.EngagementID); ok {
			name = vm.Company
		}
		fmt.Fprintf(stdout, "✓ %s:", name)
		if r.PhasesCreated > 0 {
			fmt.Fprintf(stdout, " %d phase(s) created", r.PhasesCreated)
		}
		if r.OwnerCreated {
			fmt.Fprint(stdout, " owner restored")
		}
		if r.LastActivityFixed {
			fmt.Fprint(stdout, " lastActivity fixed")
		}
		if r.CurrentPhaseFixed {
			fmt.Fprint(stdout, " currentPhase fixed")
		}
		fmt.Fprintln(stdout)
	}
	fmt.Fprintf(stdout, "Checked %d engagement(s), repaired %d\n", len(results), changed)
	return nil
}
