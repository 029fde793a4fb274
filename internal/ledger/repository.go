package ledger

import (
	"context"
	"fmt"

	"eco-proof/community-portal/community-portal-backend/internal/award"
	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
)

// Repository persists cumulative participant totals.
type Repository interface {
	Credit(ctx context.Context, name string, a award.Award) (*Entry, error)
	Upsert(ctx context.Context, fields recordstore.Record) (recordstore.Record, error)
	List(ctx context.Context) ([]recordstore.Record, error)
	Get(ctx context.Context, name string) (recordstore.Record, error)
}

// StoreRepository keeps the ledger in the users collection.
type StoreRepository struct {
	users *recordstore.Collection
}

// NewStoreRepository creates a record-store-backed ledger repository.
func NewStoreRepository(store *recordstore.Store) *StoreRepository {
	return &StoreRepository{users: store.Collection(Collection)}
}

// Credit adds an award to a participant's totals, creating the entry on
// first credit. Names match case-sensitively. The read-increment-write runs
// as one step under the collection lock, so concurrent credits all land.
func (r *StoreRepository) Credit(ctx context.Context, name string, a award.Award) (*Entry, error) {
	var out Entry
	_, err := r.users.Transform(func(records []recordstore.Record) ([]recordstore.Record, error) {
		for i, rec := range records {
			if rec["name"] == name {
				points, _ := recordstore.Int64(rec["points"])
				co2, _ := recordstore.Int64(rec["co2"])

				merged := recordstore.Clone(rec)
				merged["points"] = points + int64(a.Points)
				merged["co2"] = co2 + int64(a.CO2)
				records[i] = merged
				out = entryFromRecord(merged)
				return records, nil
			}
		}

		created := recordstore.Record{
			"name":      name,
			"points":    int64(a.Points),
			"co2":       int64(a.CO2),
			"timestamp": recordstore.Now(),
		}
		out = entryFromRecord(created)
		return append(records, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit %s: %w", name, err)
	}
	return &out, nil
}

// Upsert merges arbitrary fields over the entry with the payload's name,
// creating it when absent. Extra fields are carried through untouched.
func (r *StoreRepository) Upsert(ctx context.Context, fields recordstore.Record) (recordstore.Record, error) {
	rec, err := r.users.Upsert(recordstore.Clone(fields), func(rec recordstore.Record) any {
		return rec["name"]
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert ledger entry: %w", err)
	}
	return rec, nil
}

// List returns every ledger entry as stored.
func (r *StoreRepository) List(ctx context.Context) ([]recordstore.Record, error) {
	return r.users.ReadAll(), nil
}

// Get returns the entry with the exact name.
func (r *StoreRepository) Get(ctx context.Context, name string) (recordstore.Record, error) {
	for _, rec := range r.users.ReadAll() {
		if rec["name"] == name {
			return rec, nil
		}
	}
	return nil, recordstore.ErrNotFound
}

func entryFromRecord(rec recordstore.Record) Entry {
	name, _ := rec["name"].(string)
	points, _ := recordstore.Int64(rec["points"])
	co2, _ := recordstore.Int64(rec["co2"])
	return Entry{Name: name, Points: int(points), CO2: int(co2)}
}
