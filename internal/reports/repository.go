package reports

import (
	"context"

	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
)

// Repository persists community reports.
type Repository interface {
	Create(ctx context.Context, rec recordstore.Record) (recordstore.Record, error)
	List(ctx context.Context) ([]recordstore.Record, error)
	Get(ctx context.Context, id int64) (recordstore.Record, error)
}

// StoreRepository keeps reports in the reports collection.
type StoreRepository struct {
	reports *recordstore.Collection
}

// NewStoreRepository creates a report repository on top of the store.
func NewStoreRepository(store *recordstore.Store) *StoreRepository {
	return &StoreRepository{reports: store.Collection(Collection)}
}

// Create appends a report. The collection assigns the sequential id and the
// timestamp.
func (r *StoreRepository) Create(ctx context.Context, rec recordstore.Record) (recordstore.Record, error) {
	return r.reports.Append(rec)
}

// List returns every report in insertion order.
func (r *StoreRepository) List(ctx context.Context) ([]recordstore.Record, error) {
	return r.reports.ReadAll(), nil
}

// Get returns the report with the given id.
func (r *StoreRepository) Get(ctx context.Context, id int64) (recordstore.Record, error) {
	for _, rec := range r.reports.ReadAll() {
		if recID, ok := recordstore.Int64(rec["id"]); ok && recID == id {
			return rec, nil
		}
	}
	return nil, recordstore.ErrNotFound
}
