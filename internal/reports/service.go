package reports

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/notifications"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
	"eco-proof/community-portal/community-portal-backend/pkg/geospatial"
)

// Service provides the community report operations.
type Service struct {
	repo      Repository
	publisher notifications.Publisher
	logger    *zap.Logger
}

// NewService creates a report service.
func NewService(repo Repository, publisher notifications.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit stores a community report. The payload is free-form but must carry
// at least one field. Numeric latitude and longitude values, when present,
// make the report answerable by ListNear.
func (s *Service) Submit(ctx context.Context, payload map[string]any) (recordstore.Record, error) {
	if len(payload) == 0 {
		return nil, ErrMissingFields
	}

	created, err := s.repo.Create(ctx, recordstore.Record(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	id, _ := recordstore.Int64(created["id"])
	s.logger.Info("community report stored",
		zap.Int64("id", id),
		zap.Int("fields", len(created)))
	notifications.Publish(s.publisher, notifications.NewEvent(notifications.EventReportCreated, map[string]any{
		"id": id,
	}))

	return created, nil
}

// List returns all reports, newest first.
func (s *Service) List(ctx context.Context) ([]recordstore.Record, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	sorted := make([]recordstore.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := recordstore.Int64(sorted[i]["id"])
		b, _ := recordstore.Int64(sorted[j]["id"])
		return a > b
	})
	return sorted, nil
}

// Get returns a single report by id.
func (s *Service) Get(ctx context.Context, id int64) (recordstore.Record, error) {
	return s.repo.Get(ctx, id)
}

// ListNear returns geolocated reports within radiusKm of the coordinate
// pair, newest first. Reports without numeric coordinates are excluded.
func (s *Service) ListNear(ctx context.Context, lat, lng, radiusKm float64) ([]recordstore.Record, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]recordstore.Record, 0, len(all))
	for _, rec := range all {
		recLat, ok := recordstore.Float64(rec["latitude"])
		if !ok {
			continue
		}
		recLng, ok := recordstore.Float64(rec["longitude"])
		if !ok {
			continue
		}
		if geospatial.WithinRadius(lat, lng, recLat, recLng, radiusKm*1000) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}
