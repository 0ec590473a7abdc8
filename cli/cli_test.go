// ABOUTME: Tests for engagement CLI commands
// ABOUTME: Runs commands against an in-memory store and inspects captured output
package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/pursuit/config"
	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCLI(t *testing.T) (*engine.Coordinator, *bytes.Buffer) {
	t.Helper()
	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	coord, err := engine.New(engine.Options{Store: db.NewSQLStore(database, db.DialectSQLite), UserID: "alice"})
	require.NoError(t, err)
	require.NoError(t, coord.Load(context.Background()))

	buf := &bytes.Buffer{}
	prev := stdout
	stdout = buf
	t.Cleanup(func() { stdout = prev })
	return coord, buf
}

func onlyEngagement(t *testing.T, coord *engine.Coordinator) *models.EngagementViewModel {
	t.Helper()
	vms := coord.List()
	require.Len(t, vms, 1)
	return vms[0]
}

func TestCreateAndListEngagements(t *testing.T) {
	coord, out := setupTestCLI(t)

	require.NoError(t, CreateEngagementCommand(coord, []string{"--company", "Acme Corp", "--value", "1250000", "--start", "2024-01-01"}))
	assert.Contains(t, out.String(), "✓ Engagement created: Acme Corp")
	assert.Contains(t, out.String(), "$12500.00")

	out.Reset()
	require.NoError(t, ListEngagementsCommand(coord, nil))
	assert.Contains(t, out.String(), "Acme Corp")
	assert.Contains(t, out.String(), "DISCOVER")
	assert.Contains(t, out.String(), "1 engagement(s)")

	out.Reset()
	require.NoError(t, ListEngagementsCommand(coord, []string{"--query", "globex"}))
	assert.Contains(t, out.String(), "No engagements found")

	assert.Error(t, CreateEngagementCommand(coord, nil))
}

func TestShowEngagementRecordsView(t *testing.T) {
	coord, out := setupTestCLI(t)
	require.NoError(t, CreateEngagementCommand(coord, []string{"--company", "Acme Corp"}))
	vm := onlyEngagement(t, coord)

	out.Reset()
	require.NoError(t, ShowEngagementCommand(coord, []string{"acme corp"}))
	assert.Contains(t, out.String(), "Acme Corp")
	assert.Contains(t, out.String(), "DISCOVER IN_PROGRESS")

	got, ok := coord.Get(vm.ID)
	require.True(t, ok)
	require.NotNil(t, got.LastView)

	assert.Error(t, ShowEngagementCommand(coord, []string{"nobody"}))
}

func TestFindEngagementByPrefixAndAmbiguity(t *testing.T) {
	coord, _ := setupTestCLI(t)
	require.NoError(t, CreateEngagementCommand(coord, []string{"--company", "Acme"}))
	require.NoError(t, CreateEngagementCommand(coord, []string{"--company", "Globex"}))

	for _, vm := range coord.List() {
		found, err := findEngagement(coord, vm.ID[:20])
		require.NoError(t, err)
		assert.Equal(t, vm.ID, found.ID)
	}

	_, err := findEngagement(coord, "")
	assert.Error(t, err)
}

func TestPhaseActivityAndNoteCommands(t *testing.T) {
	coord, out := setupTestCLI(t)
	require.NoError(t, CreateEngagementCommand(coord, []string{"--company", "Acme", "--start", "2024-01-01"}))
	vm := onlyEngagement(t, coord)

	require.NoError(t, PhaseCommand(coord, []string{"--notes", "scoped", "Acme", "qualify", "in_progress"}))
	assert.Contains(t, out.String(), "Current phase: QUALIFY")

	require.NoError(t, AddActivityCommand(coord, []string{"--type", "call", "--date", "2024-01-10", "--desc", "Intro", "Acme"}))
	got, _ := coord.Get(vm.ID)
	require.Len(t, got.Activities, 1)
	act := got.Activities[0]
	assert.Equal(t, "2024-01-10", got.LastActivity.Format(dateLayout))

	require.NoError(t, CommentCommand(coord, []string{"add", "Acme", act.ID[:8], "went", "well"}))
	got, _ = coord.Get(vm.ID)
	require.Len(t, got.Activities[0].Comments, 1)
	assert.Equal(t, "went well", got.Activities[0].Comments[0].Content)

	require.NoError(t, EditActivityCommand(coord, []string{"--desc", "Discovery", "Acme", act.ID[:8]}))
	got, _ = coord.Get(vm.ID)
	assert.Equal(t, "Discovery", got.Activities[0].Description)

	out.Reset()
	require.NoError(t, DeleteActivityCommand(coord, []string{"Acme", act.ID[:8]}))
	assert.Contains(t, out.String(), "and 1 comment(s)")
	got, _ = coord.Get(vm.ID)
	assert.Empty(t, got.Activities)

	require.NoError(t, NoteCommand(coord, []string{"add", "Acme", "discover", "budget", "ok"}))
	out.Reset()
	require.NoError(t, NoteCommand(coord, []string{"list", "Acme"}))
	assert.Contains(t, out.String(), "budget ok")
	assert.Contains(t, out.String(), "1 note(s)")

	assert.Error(t, PhaseCommand(coord, []string{"Acme", "qualify"}))
}

func TestStatusArchiveAndDelete(t *testing.T) {
	coord, out := setupTestCLI(t)
	require.NoError(t, CreateEngagementCommand(coord, []string{"--company", "Acme"}))
	vm := onlyEngagement(t, coord)

	require.NoError(t, StatusCommand(coord, []string{"--reason", "price", "Acme", "lost"}))
	assert.Contains(t, out.String(), "Acme is now LOST")
	got, _ := coord.Get(vm.ID)
	assert.True(t, got.IsArchived)

	require.NoError(t, ArchiveCommand(coord, []string{"--restore", "Acme"}))
	got, _ = coord.Get(vm.ID)
	assert.False(t, got.IsArchived)
	assert.Equal(t, models.StatusActive, got.EngagementStatus)

	out.Reset()
	require.NoError(t, DeleteEngagementCommand(coord, []string{"Acme"}))
	assert.Contains(t, out.String(), "--confirm")
	_, ok := coord.Get(vm.ID)
	assert.True(t, ok)

	out.Reset()
	require.NoError(t, DeleteEngagementCommand(coord, []string{"--confirm", "Acme"}))
	assert.Contains(t, out.String(), "✓ Deleted Acme")
	assert.Contains(t, out.String(), "Phase")
	_, ok = coord.Get(vm.ID)
	assert.False(t, ok)
}

func TestOwnerAndShareCommands(t *testing.T) {
	coord, out := setupTestCLI(t)
	require.NoError(t, CreateEngagementCommand(coord, []string{"--company", "Acme"}))
	vm := onlyEngagement(t, coord)

	require.NoError(t, OwnerCommand(coord, []string{"add", "Acme", "bob"}))
	got, _ := coord.Get(vm.ID)
	assert.Contains(t, got.OwnerIDs, "bob")

	require.NoError(t, OwnerCommand(coord, []string{"remove", "Acme", "bob"}))
	got, _ = coord.Get(vm.ID)
	assert.NotContains(t, got.OwnerIDs, "bob")
	assert.Error(t, OwnerCommand(coord, []string{"remove", "Acme", "bob"}))

	out.Reset()
	require.NoError(t, ShareCommand(coord, []string{"create", "Acme"}))
	assert.Contains(t, out.String(), "/share/")

	links, err := coord.ListShareLinks(context.Background(), vm.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)

	require.NoError(t, ShareCommand(coord, []string{"revoke", "Acme", links[0].Token}))
	links, err = coord.ListShareLinks(context.Background(), vm.ID)
	require.NoError(t, err)
	assert.False(t, links[0].IsActive)
}

func TestVizAndRepairCommands(t *testing.T) {
	coord, out := setupTestCLI(t)
	require.NoError(t, CreateEngagementCommand(coord, []string{"--company", "Acme"}))

	out.Reset()
	require.NoError(t, VizDashboardCommand(coord, nil))
	assert.Contains(t, out.String(), "PURSUIT DASHBOARD")

	path := filepath.Join(t.TempDir(), "pipeline.dot")
	require.NoError(t, VizGraphPipelineCommand(coord, []string{"--output", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Acme")

	out.Reset()
	require.NoError(t, RepairCommand(context.Background(), coord, nil))
	assert.Contains(t, out.String(), "Checked 1 engagement(s), repaired 0")
}

func TestSyncCommandNeedsKVStore(t *testing.T) {
	coord, _ := setupTestCLI(t)
	cfg := config.Default()
	err := SyncCommand(coord.Store(), cfg, []string{"status"})
	assert.ErrorContains(t, err, "charm://")

	assert.Error(t, SyncCommand(coord.Store(), cfg, nil))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList("a, b,,c "))
	assert.Nil(t, splitList(""))
}
