package audit

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/ledger"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
	"eco-proof/community-portal/community-portal-backend/internal/reports"
	"eco-proof/community-portal/community-portal-backend/internal/verification"
)

// Report is one sweep's findings.
type Report struct {
	GeneratedAt string            `json:"generatedAt"`
	Collections map[string]string `json:"collections"`
	LedgerDrift []Drift           `json:"ledgerDrift"`
	Healthy     bool              `json:"healthy"`
}

// Drift is an advisory mismatch between a participant's credited totals and
// the sum of award snapshots over their accepted verifications. Direct
// ledger upserts legitimately move totals, so drift never fails a sweep.
type Drift struct {
	Name           string `json:"name"`
	ExpectedPoints int64  `json:"expectedPoints"`
	ActualPoints   int64  `json:"actualPoints"`
	ExpectedCO2    int64  `json:"expectedCo2"`
	ActualCO2      int64  `json:"actualCo2"`
}

// Auditor periodically re-parses the collection files and cross-checks the
// ledger against the verification log. It observes and logs, never mutates.
type Auditor struct {
	store    *recordstore.Store
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger

	mu      sync.RWMutex
	last    *Report
	running bool
}

// NewAuditor creates an auditor with a cron schedule such as "@every 5m".
func NewAuditor(store *recordstore.Store, schedule string, logger *zap.Logger) *Auditor {
	return &Auditor{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start schedules sweeps and runs the first one right away.
func (a *Auditor) Start() error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("auditor already running")
	}
	a.running = true
	a.mu.Unlock()

	if _, err := a.cron.AddFunc(a.schedule, func() { a.Sweep() }); err != nil {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
		return fmt.Errorf("invalid audit schedule %q: %w", a.schedule, err)
	}

	a.logger.Info("integrity auditor started", zap.String("schedule", a.schedule))
	a.cron.Start()
	go a.Sweep()

	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (a *Auditor) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	// Drain outside the lock: a sweep in flight needs it to store its report.
	<-a.cron.Stop().Done()
	a.logger.Info("integrity auditor stopped")
}

// Last returns the most recent sweep report, if one has completed.
func (a *Auditor) Last() (*Report, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.last == nil {
		return nil, false
	}
	return a.last, true
}

// Sweep runs one audit pass and records it as the latest report.
func (a *Auditor) Sweep() *Report {
	report := &Report{
		GeneratedAt: recordstore.Now(),
		Collections: make(map[string]string),
		LedgerDrift: []Drift{},
		Healthy:     true,
	}

	for _, name := range []string{ledger.Collection, verification.Collection, reports.Collection} {
		if err := a.store.Collection(name).Verify(); err != nil {
			report.Collections[name] = err.Error()
			report.Healthy = false
			a.logger.Error("collection failed integrity check",
				zap.String("collection", name),
				zap.Error(err))
			continue
		}
		report.Collections[name] = "ok"
	}

	report.LedgerDrift = a.checkLedgerDrift()

	a.mu.Lock()
	a.last = report
	a.mu.Unlock()

	a.logger.Info("audit sweep completed",
		zap.Bool("healthy", report.Healthy),
		zap.Int("drifted_users", len(report.LedgerDrift)))
	return report
}

// checkLedgerDrift recomputes each participant's totals from the award
// snapshots on accepted verifications and compares them with the ledger.
func (a *Auditor) checkLedgerDrift() []Drift {
	type totals struct{ points, co2 int64 }
	expected := make(map[string]totals)

	for _, rec := range a.store.Collection(verification.Collection).ReadAll() {
		status, _ := rec["status"].(string)
		if verification.Status(status) != verification.StatusAccepted {
			continue
		}
		user, _ := rec["user"].(string)
		granted, _ := rec["award"].(map[string]any)
		if user == "" || granted == nil {
			continue
		}

		sum := expected[user]
		if points, ok := recordstore.Int64(granted["points"]); ok {
			sum.points += points
		}
		if co2, ok := recordstore.Int64(granted["co2"]); ok {
			sum.co2 += co2
		}
		expected[user] = sum
	}

	actual := make(map[string]totals)
	for _, rec := range a.store.Collection(ledger.Collection).ReadAll() {
		name, _ := rec["name"].(string)
		if name == "" {
			continue
		}
		sum := actual[name]
		if points, ok := recordstore.Int64(rec["points"]); ok {
			sum.points = points
		}
		if co2, ok := recordstore.Int64(rec["co2"]); ok {
			sum.co2 = co2
		}
		actual[name] = sum
	}

	names := make(map[string]struct{}, len(expected)+len(actual))
	for name := range expected {
		names[name] = struct{}{}
	}
	for name := range actual {
		names[name] = struct{}{}
	}

	drifts := make([]Drift, 0)
	for name := range names {
		want, have := expected[name], actual[name]
		if want == have {
			continue
		}
		drift := Drift{
			Name:           name,
			ExpectedPoints: want.points,
			ActualPoints:   have.points,
			ExpectedCO2:    want.co2,
			ActualCO2:      have.co2,
		}
		drifts = append(drifts, drift)
		a.logger.Warn("ledger drift detected",
			zap.String("name", name),
			zap.Int64("expected_points", want.points),
			zap.Int64("actual_points", have.points),
			zap.Int64("expected_co2", want.co2),
			zap.Int64("actual_co2", have.co2))
	}
	return drifts
}
