package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/notifications"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
)

type capturePublisher struct {
	events []notifications.Event
}

func (p *capturePublisher) Publish(e notifications.Event) {
	p.events = append(p.events, e)
}

func newTestSetup(t *testing.T) (*Service, *capturePublisher) {
	t.Helper()

	store, err := recordstore.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	publisher := &capturePublisher{}
	return NewService(NewStoreRepository(store), publisher, zap.NewNop()), publisher
}

func TestSubmitAssignsSequentialIDs(t *testing.T) {
	svc, publisher := newTestSetup(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, map[string]any{"title": "fallen tree on main street"})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, map[string]any{"title": "illegal dumping at the river"})
	require.NoError(t, err)

	firstID, ok := recordstore.Int64(first["id"])
	require.True(t, ok)
	secondID, ok := recordstore.Int64(second["id"])
	require.True(t, ok)

	assert.Equal(t, int64(1), firstID)
	assert.Equal(t, int64(2), secondID)
	assert.NotEmpty(t, first["timestamp"])

	require.Len(t, publisher.events, 2)
	assert.Equal(t, notifications.EventReportCreated, publisher.events[0].Type)
}

func TestSubmitRejectsEmptyPayload(t *testing.T) {
	svc, publisher := newTestSetup(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, nil)
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Submit(ctx, map[string]any{})
	assert.ErrorIs(t, err, ErrMissingFields)

	assert.Empty(t, publisher.events)
}

func TestListNewestFirst(t *testing.T) {
	svc, _ := newTestSetup(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.Submit(ctx, map[string]any{"title": title})
		require.NoError(t, err)
	}

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "third", listed[0]["title"])
	assert.Equal(t, "first", listed[2]["title"])
}

func TestListNearFiltersByRadius(t *testing.T) {
	svc, _ := newTestSetup(t)
	ctx := context.Background()

	// Two reports in Berlin, one in Paris, one without coordinates.
	_, err := svc.Submit(ctx, map[string]any{"title": "alexanderplatz", "latitude": 52.5219, "longitude": 13.4132})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, map[string]any{"title": "tiergarten", "latitude": 52.5145, "longitude": 13.3501})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, map[string]any{"title": "louvre", "latitude": 48.8606, "longitude": 2.3376})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, map[string]any{"title": "nowhere"})
	require.NoError(t, err)

	near, err := svc.ListNear(ctx, 52.52, 13.405, 10)
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, "tiergarten", near[0]["title"])
	assert.Equal(t, "alexanderplatz", near[1]["title"])

	tight, err := svc.ListNear(ctx, 52.52, 13.405, 1)
	require.NoError(t, err)
	require.Len(t, tight, 1)
	assert.Equal(t, "alexanderplatz", tight[0]["title"])
}

func TestListNearSkipsNonNumericCoordinates(t *testing.T) {
	svc, _ := newTestSetup(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, map[string]any{"title": "bad coords", "latitude": "52.52", "longitude": "13.405"})
	require.NoError(t, err)

	near, err := svc.ListNear(ctx, 52.52, 13.405, 100)
	require.NoError(t, err)
	assert.Empty(t, near)
}

func TestGetReport(t *testing.T) {
	svc, _ := newTestSetup(t)
	ctx := context.Background()

	created, err := svc.Submit(ctx, map[string]any{"title": "blocked drain"})
	require.NoError(t, err)
	id, _ := recordstore.Int64(created["id"])

	found, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "blocked drain", found["title"])

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
}
