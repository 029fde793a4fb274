package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/award"
	"eco-proof/community-portal/community-portal-backend/internal/ledger"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
	"eco-proof/community-portal/community-portal-backend/internal/upload"
	"eco-proof/community-portal/community-portal-backend/internal/verification"
)

// seedConsistent runs one accepted submission through the real workflow so
// the ledger matches the verification log exactly.
func seedConsistent(t *testing.T) (*recordstore.Store, *ledger.Service, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := recordstore.Open(dir, zap.NewNop())
	require.NoError(t, err)

	ledgerSvc := ledger.NewService(ledger.NewStoreRepository(store), zap.NewNop())
	verifSvc := verification.NewService(
		verification.NewStoreRepository(store, zap.NewNop()),
		award.New(nil), ledgerSvc, nil, zap.NewNop())

	result, err := verifSvc.Submit(context.Background(), verification.SubmitInput{
		User:   "ada",
		Action: "plant",
		File:   &upload.StoredFile{Filename: "proof.jpg", OriginalName: "proof.jpg", Size: 3000},
	})
	require.NoError(t, err)
	require.Equal(t, verification.StatusAccepted, result.Status)

	return store, ledgerSvc, dir
}

func TestSweepOnConsistentStore(t *testing.T) {
	store, _, _ := seedConsistent(t)
	auditor := NewAuditor(store, "@every 5m", zap.NewNop())

	report := auditor.Sweep()

	assert.True(t, report.Healthy)
	assert.Equal(t, "ok", report.Collections["users"])
	assert.Equal(t, "ok", report.Collections["verifications"])
	assert.Equal(t, "ok", report.Collections["reports"])
	assert.Empty(t, report.LedgerDrift)
	assert.NotEmpty(t, report.GeneratedAt)
}

func TestSweepFlagsCorruptCollection(t *testing.T) {
	store, _, dir := seedConsistent(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte("{broken"), 0o644))

	auditor := NewAuditor(store, "@every 5m", zap.NewNop())
	report := auditor.Sweep()

	assert.False(t, report.Healthy)
	assert.NotEqual(t, "ok", report.Collections["users"])
	assert.Equal(t, "ok", report.Collections["verifications"])
}

func TestSweepDetectsLedgerDrift(t *testing.T) {
	store, ledgerSvc, _ := seedConsistent(t)

	// A direct upsert moves ada's totals away from the award history.
	_, err := ledgerSvc.Upsert(context.Background(), map[string]any{"name": "ada", "points": 99})
	require.NoError(t, err)

	auditor := NewAuditor(store, "@every 5m", zap.NewNop())
	report := auditor.Sweep()

	// Drift is advisory: the sweep stays healthy.
	assert.True(t, report.Healthy)
	require.Len(t, report.LedgerDrift, 1)
	drift := report.LedgerDrift[0]
	assert.Equal(t, "ada", drift.Name)
	assert.Equal(t, int64(10), drift.ExpectedPoints)
	assert.Equal(t, int64(99), drift.ActualPoints)
}

func TestLastReportLifecycle(t *testing.T) {
	store, _, _ := seedConsistent(t)
	auditor := NewAuditor(store, "@every 5m", zap.NewNop())

	_, ok := auditor.Last()
	assert.False(t, ok)

	swept := auditor.Sweep()

	last, ok := auditor.Last()
	require.True(t, ok)
	assert.Equal(t, swept.GeneratedAt, last.GeneratedAt)
}

func TestStartRunsInitialSweep(t *testing.T) {
	store, _, _ := seedConsistent(t)
	auditor := NewAuditor(store, "@every 1h", zap.NewNop())

	require.NoError(t, auditor.Start())
	defer auditor.Stop()

	require.Eventually(t, func() bool {
		_, ok := auditor.Last()
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	store, _, _ := seedConsistent(t)
	auditor := NewAuditor(store, "every five minutes", zap.NewNop())

	assert.Error(t, auditor.Start())
}

func TestAuditEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store, _, _ := seedConsistent(t)
	auditor := NewAuditor(store, "@every 5m", zap.NewNop())

	router := gin.New()
	NewHandler(auditor).RegisterRoutes(router.Group("/api/v1/admin"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	auditor.Sweep()

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Healthy)
}
