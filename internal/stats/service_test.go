package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
)

func seedStore(t *testing.T) *recordstore.Store {
	t.Helper()

	store, err := recordstore.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	users := store.Collection("users")
	_, err = users.Append(recordstore.Record{"name": "ada", "points": int64(10), "co2": int64(5)})
	require.NoError(t, err)
	_, err = users.Append(recordstore.Record{"name": "grace", "points": int64(8), "co2": int64(2)})
	require.NoError(t, err)

	verifications := store.Collection("verifications")
	for _, rec := range []recordstore.Record{
		{"user": "ada", "action": "plant", "status": "accepted"},
		{"user": "grace", "action": "Plant", "status": "accepted"},
		{"user": "grace", "action": "clean", "status": "pending"},
	} {
		_, err = verifications.Append(rec)
		require.NoError(t, err)
	}

	reports := store.Collection("reports")
	_, err = reports.Append(recordstore.Record{"title": "fallen tree"})
	require.NoError(t, err)

	return store
}

func TestSummaryAggregatesCollections(t *testing.T) {
	svc := NewService(seedStore(t), DefaultTTL, zap.NewNop())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Participants)
	assert.Equal(t, int64(18), summary.TotalPoints)
	assert.Equal(t, int64(7), summary.TotalCO2)
	assert.Equal(t, 3, summary.Verifications)
	assert.Equal(t, 2, summary.AcceptedVerifications)
	assert.Equal(t, 1, summary.PendingVerifications)
	assert.Equal(t, 1, summary.Reports)
	assert.NotEmpty(t, summary.GeneratedAt)
}

func TestSummaryLowercasesActionCounts(t *testing.T) {
	svc := NewService(seedStore(t), DefaultTTL, zap.NewNop())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ActionCounts["plant"])
	assert.Equal(t, 1, summary.ActionCounts["clean"])
	assert.NotContains(t, summary.ActionCounts, "Plant")
}

func TestSummaryServedFromCacheUntilExpiry(t *testing.T) {
	store := seedStore(t)
	svc := NewService(store, 50*time.Millisecond, zap.NewNop())
	ctx := context.Background()

	before, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, before.Participants)

	_, err = store.Collection("users").Append(recordstore.Record{"name": "lin", "points": int64(5)})
	require.NoError(t, err)

	cached, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Participants)

	time.Sleep(120 * time.Millisecond)

	refreshed, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, refreshed.Participants)
}

func TestSummaryOfEmptyStore(t *testing.T) {
	store, err := recordstore.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	svc := NewService(store, DefaultTTL, zap.NewNop())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Participants)
	assert.Zero(t, summary.Verifications)
	assert.Zero(t, summary.Reports)
	assert.Empty(t, summary.ActionCounts)
	assert.NotEmpty(t, summary.GeneratedAt)
}
