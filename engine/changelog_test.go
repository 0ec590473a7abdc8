package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeLogFailureNeverFailsTheMutation(t *testing.T) {
	clock := newFakeClock()
	inner := newTestStore(t, clock)
	store := newFailingStore(inner)
	s := newSession(t, store, clock, "alice")
	ctx := context.Background()
	vm := createAcme(t, s)

	store.createErr[db.ChangeLogs] = errors.New("changelog table locked")

	act, err := s.AddActivity(ctx, vm.ID, NewActivity{Type: models.ActivityCall, Date: jan10})
	require.NoError(t, err)
	assert.Equal(t, 1, countRecords(t, inner, db.Activities, db.Filter{"id": act.ID}))

	got, _ := s.Get(vm.ID)
	assert.True(t, got.LastActivity.Equal(jan10))
	require.Len(t, got.ChangeLogs, 1)
	assert.Equal(t, models.ChangeCreated, got.ChangeLogs[0].ChangeType)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ChangeLogFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Mutations.WithLabelValues("add_activity", "ok")))
}

func TestDiffEngagement(t *testing.T) {
	before := models.Engagement{Company: "Acme", DealValue: 100}
	after := before
	assert.Empty(t, diffEngagement(before, after))

	after.Company = "Acme Corp"
	after.DealValue = 250
	changes := diffEngagement(before, after)
	require.Len(t, changes, 2)

	desc, prev, next := describeChanges(changes)
	assert.Contains(t, desc, `company: "Acme" → "Acme Corp"`)
	assert.Equal(t, "company=Acme; dealValue=1.00", prev)
	assert.Equal(t, "company=Acme Corp; dealValue=2.50", next)
}
