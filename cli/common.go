// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Engagement lookup by ID, ID prefix, or company name plus date and money formatting
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
)

// stdout is where commands print. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

const dateLayout = "2006-01-02"

// findEngagement resolves ref to a cached engagement. ref may be a full ID,
// a unique ID prefix, or a unique case-insensitive company name.
func findEngagement(coord *engine.Coordinator, ref string) (*models.EngagementViewModel, error) {
	if ref == "" {
		return nil, fmt.Errorf("engagement ID or company is required")
	}
	if vm, ok := coord.Get(ref); ok {
		return vm, nil
	}

	var matches []*models.EngagementViewModel
	for _, vm := range coord.List() {
		if strings.HasPrefix(vm.ID, ref) || strings.EqualFold(vm.Company, ref) {
			matches = append(matches, vm)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no engagement matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d engagements; use the ID", ref, len(matches))
	}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}

func formatMoney(cents int64) string {
	if cents == 0 {
		return "-"
	}
	return fmt.Sprintf("$%.2f", float64(cents)/100.0)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeError explains a refused write and how to recover.
func writeError(err error) error {
	if engine.IsConflict(err) {
		return fmt.Errorf("%s (run the command again to retry against the latest copy)", engine.ConflictMessage)
	}
	return err
}

// splitList turns "a, b,c" into ["a" "b" "c"].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
