package verification

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/award"
	"eco-proof/community-portal/community-portal-backend/internal/ledger"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
	"eco-proof/community-portal/community-portal-backend/internal/upload"
)

// MockCreditor is a mock implementation of the Creditor interface
type MockCreditor struct {
	mock.Mock
}

func (m *MockCreditor) Credit(ctx context.Context, name string, a award.Award) (*ledger.Entry, error) {
	args := m.Called(ctx, name, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func newTestService(t *testing.T) (*Service, *ledger.Service) {
	t.Helper()

	store, err := recordstore.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	ledgerSvc := ledger.NewService(ledger.NewStoreRepository(store), zap.NewNop())
	repo := NewStoreRepository(store, zap.NewNop())
	svc := NewService(repo, award.New(nil), ledgerSvc, nil, zap.NewNop())
	return svc, ledgerSvc
}

func proof(size int64) *upload.StoredFile {
	return &upload.StoredFile{
		Filename:     "2f1c3a50-proof.jpg",
		OriginalName: "garden.jpg",
		Size:         size,
	}
}

func TestSubmitAcceptsLargeProof(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "plant", File: proof(3000)})
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Greater(t, result.ID, int64(0))
	require.NotNil(t, result.Award)
	assert.Equal(t, 10, result.Award.Points)
	assert.Equal(t, 5, result.Award.CO2)
	assert.Empty(t, result.Filename)

	stored, err := svc.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, stored.Status)
	assert.NotEmpty(t, stored.Timestamp)
	assert.Equal(t, "garden.jpg", stored.File.OriginalName)

	standings, err := ledgerSvc.Standings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, "ada", standings[0].Name)
	assert.Equal(t, 10, standings[0].Points)
	assert.Equal(t, 5, standings[0].CO2)
}

func TestSubmitSizeThresholdIsStrict(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	atThreshold, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "plant", File: proof(2048)})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, atThreshold.Status)
	assert.Nil(t, atThreshold.Award)
	assert.Equal(t, "2f1c3a50-proof.jpg", atThreshold.Filename)

	aboveThreshold, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "plant", File: proof(2049)})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, aboveThreshold.Status)

	// Only the accepted submission credits the ledger.
	standings, err := ledgerSvc.Standings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 10, standings[0].Points)
}

func TestSubmitPendingDoesNotCredit(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "clean", File: proof(100)})
	require.NoError(t, err)

	_, err = ledgerSvc.Get(ctx, "ada")
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
}

func TestSubmitUnknownActionGetsZeroAward(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "recycling", File: proof(4000)})
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	require.NotNil(t, result.Award)
	assert.Equal(t, 0, result.Award.Points)
	assert.Equal(t, 0, result.Award.CO2)
}

func TestSubmitActionLookupIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "Plant", File: proof(3000)})
	require.NoError(t, err)

	require.NotNil(t, result.Award)
	assert.Equal(t, 10, result.Award.Points)

	stored, err := svc.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plant", stored.Action)
}

func TestSubmitRejectsIncompleteInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input SubmitInput
	}{
		{"missing user", SubmitInput{Action: "plant", File: proof(3000)}},
		{"blank user", SubmitInput{User: "   ", Action: "plant", File: proof(3000)}},
		{"missing action", SubmitInput{User: "ada", File: proof(3000)}},
		{"missing file", SubmitInput{User: "ada", Action: "plant"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.input)
			assert.ErrorIs(t, err, ErrMissingFields)
		})
	}
}

func TestApprovePendingCreditsParticipant(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, SubmitInput{User: "grace", Action: "clean", File: proof(512)})
	require.NoError(t, err)
	require.Equal(t, StatusPending, submitted.Status)

	result, err := svc.Approve(ctx, submitted.ID)
	require.NoError(t, err)

	assert.True(t, result.Credited)
	assert.Equal(t, StatusAccepted, result.Verification.Status)
	require.NotNil(t, result.Verification.Award)
	assert.Equal(t, 8, result.Verification.Award.Points)
	assert.Equal(t, 2, result.Verification.Award.CO2)

	standings, err := ledgerSvc.Standings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 8, standings[0].Points)
	assert.Equal(t, 2, standings[0].CO2)
}

func TestApproveTwiceCreditsOnce(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, SubmitInput{User: "grace", Action: "clean", File: proof(512)})
	require.NoError(t, err)

	first, err := svc.Approve(ctx, submitted.ID)
	require.NoError(t, err)
	assert.True(t, first.Credited)

	second, err := svc.Approve(ctx, submitted.ID)
	require.NoError(t, err)
	assert.False(t, second.Credited)
	assert.Equal(t, StatusAccepted, second.Verification.Status)

	standings, err := ledgerSvc.Standings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 8, standings[0].Points)
}

func TestApproveAutoAcceptedIsNoOp(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "plant", File: proof(3000)})
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, submitted.Status)

	result, err := svc.Approve(ctx, submitted.ID)
	require.NoError(t, err)
	assert.False(t, result.Credited)

	standings, err := ledgerSvc.Standings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 10, standings[0].Points)
}

func TestApproveMissingVerification(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Approve(context.Background(), 424242)
	assert.ErrorIs(t, err, recordstore.ErrNotFound)
}

func TestConcurrentApprovalsCreditOnce(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, SubmitInput{User: "grace", Action: "awareness", File: proof(256)})
	require.NoError(t, err)

	const approvers = 25
	credited := make(chan bool, approvers)

	var wg sync.WaitGroup
	for i := 0; i < approvers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Approve(ctx, submitted.ID)
			if err != nil {
				credited <- false
				return
			}
			credited <- result.Credited
		}()
	}
	wg.Wait()
	close(credited)

	wins := 0
	for c := range credited {
		if c {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	standings, err := ledgerSvc.Standings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 5, standings[0].Points)
	assert.Equal(t, 1, standings[0].CO2)
}

func TestApproveCallsCreditorOnce(t *testing.T) {
	store, err := recordstore.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	creditor := new(MockCreditor)
	creditor.On("Credit", mock.Anything, "grace", award.Award{Points: 8, CO2: 2}).
		Return(&ledger.Entry{Name: "grace", Points: 8, CO2: 2}, nil)

	svc := NewService(NewStoreRepository(store, zap.NewNop()), award.New(nil), creditor, nil, zap.NewNop())
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, SubmitInput{User: "grace", Action: "clean", File: proof(512)})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, submitted.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, submitted.ID)
	require.NoError(t, err)

	creditor.AssertNumberOfCalls(t, "Credit", 1)
}

func TestListFiltersAndOrdering(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "plant", File: proof(3000)})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, SubmitInput{User: "grace", Action: "clean", File: proof(100)})
	require.NoError(t, err)
	third, err := svc.Submit(ctx, SubmitInput{User: "ada", Action: "Plant", File: proof(200)})
	require.NoError(t, err)

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, first.ID, all[2].ID)

	pending, err := svc.List(ctx, Filter{Status: StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	planting, err := svc.List(ctx, Filter{Action: "PLANT"})
	require.NoError(t, err)
	assert.Len(t, planting, 2)

	ada, err := svc.List(ctx, Filter{User: "ada"})
	require.NoError(t, err)
	assert.Len(t, ada, 2)

	nobody, err := svc.List(ctx, Filter{User: "Ada"})
	require.NoError(t, err)
	assert.Empty(t, nobody)
}
