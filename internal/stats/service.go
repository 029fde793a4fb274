package stats

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/ledger"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
	"eco-proof/community-portal/community-portal-backend/internal/reports"
	"eco-proof/community-portal/community-portal-backend/internal/verification"
)

// DefaultTTL is how long a computed summary is served before the collection
// files are read again.
const DefaultTTL = 30 * time.Second

// Summary is the aggregate portal snapshot the dashboard polls.
type Summary struct {
	Participants          int            `json:"participants"`
	TotalPoints           int64          `json:"totalPoints"`
	TotalCO2              int64          `json:"totalCo2"`
	Verifications         int            `json:"verifications"`
	AcceptedVerifications int            `json:"acceptedVerifications"`
	PendingVerifications  int            `json:"pendingVerifications"`
	ActionCounts          map[string]int `json:"actionCounts"`
	Reports               int            `json:"reports"`
	GeneratedAt           string         `json:"generatedAt"`
}

// Service computes portal statistics across the collections.
type Service struct {
	users         *recordstore.Collection
	verifications *recordstore.Collection
	reports       *recordstore.Collection
	cache         *summaryCache
	logger        *zap.Logger
}

// NewService creates a stats service. A non-positive ttl falls back to
// DefaultTTL.
func NewService(store *recordstore.Store, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		users:         store.Collection(ledger.Collection),
		verifications: store.Collection(verification.Collection),
		reports:       store.Collection(reports.Collection),
		cache:         newSummaryCache(ttl),
		logger:        logger,
	}
}

// Summary returns the portal snapshot, from cache when it is still fresh.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if cached, ok := s.cache.get(); ok {
		return cached, nil
	}

	summary := s.compute()
	s.cache.set(summary)
	s.logger.Debug("stats summary recomputed",
		zap.Int("participants", summary.Participants),
		zap.Int("verifications", summary.Verifications))
	return summary, nil
}

func (s *Service) compute() *Summary {
	summary := &Summary{
		ActionCounts: make(map[string]int),
		GeneratedAt:  recordstore.Now(),
	}

	users := s.users.ReadAll()
	summary.Participants = len(users)
	for _, rec := range users {
		if points, ok := recordstore.Int64(rec["points"]); ok {
			summary.TotalPoints += points
		}
		if co2, ok := recordstore.Int64(rec["co2"]); ok {
			summary.TotalCO2 += co2
		}
	}

	for _, rec := range s.verifications.ReadAll() {
		summary.Verifications++
		status, _ := rec["status"].(string)
		switch verification.Status(status) {
		case verification.StatusAccepted:
			summary.AcceptedVerifications++
		case verification.StatusPending:
			summary.PendingVerifications++
		}
		if action, ok := rec["action"].(string); ok && action != "" {
			summary.ActionCounts[strings.ToLower(action)]++
		}
	}

	summary.Reports = len(s.reports.ReadAll())
	return summary
}
