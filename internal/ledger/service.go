package ledger

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/award"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
)

// Service owns ledger reads and writes.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a ledger service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Credit adds an award to a participant's running totals. Crediting is
// additive, never idempotent: two credits of the same award double it.
// Zero awards still create or touch the entry.
func (s *Service) Credit(ctx context.Context, name string, a award.Award) (*Entry, error) {
	entry, err := s.repo.Credit(ctx, name, a)
	if err != nil {
		return nil, err
	}

	s.logger.Info("credited participant",
		zap.String("name", name),
		zap.Int("points", a.Points),
		zap.Int("co2", a.CO2),
		zap.Int("total_points", entry.Points))
	return entry, nil
}

// Upsert writes administrative fields onto the entry keyed by the payload's
// name. The name is required; everything else is merged as given.
func (s *Service) Upsert(ctx context.Context, fields map[string]any) (recordstore.Record, error) {
	name, _ := fields["name"].(string)
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}
	return s.repo.Upsert(ctx, recordstore.Record(fields))
}

// List returns every ledger entry as stored, extra fields included.
func (s *Service) List(ctx context.Context) ([]recordstore.Record, error) {
	return s.repo.List(ctx)
}

// Get returns one entry by exact name.
func (s *Service) Get(ctx context.Context, name string) (recordstore.Record, error) {
	return s.repo.Get(ctx, name)
}

// Standings ranks participants by points descending, ties broken by name.
// A non-positive limit returns everyone.
func (s *Service) Standings(ctx context.Context, limit int) ([]Standing, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		var entry Entry
		if err := recordstore.Decode(rec, &entry); err != nil {
			s.logger.Warn("skipping undecodable ledger entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Name < entries[j].Name
	})

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	standings := make([]Standing, len(entries))
	for i, e := range entries {
		standings[i] = Standing{Rank: i + 1, Name: e.Name, Points: e.Points, CO2: e.CO2}
	}
	return standings, nil
}
