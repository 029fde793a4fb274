package verification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/recordstore"
)

// Repository persists verification records.
type Repository interface {
	Create(ctx context.Context, v *Verification) (*Verification, error)
	List(ctx context.Context) ([]Verification, error)
	Get(ctx context.Context, id int64) (*Verification, error)
	// Update applies fn to the record with the given id while the collection
	// lock is held. fn mutates the verification in place and reports whether
	// the change should be written back.
	Update(ctx context.Context, id int64, fn func(v *Verification) (bool, error)) (*Verification, bool, error)
}

// StoreRepository keeps verifications in the verifications collection.
type StoreRepository struct {
	verifications *recordstore.Collection
	logger        *zap.Logger
}

// NewStoreRepository creates a verification repository on top of the store.
func NewStoreRepository(store *recordstore.Store, logger *zap.Logger) *StoreRepository {
	return &StoreRepository{
		verifications: store.Collection(Collection),
		logger:        logger,
	}
}

// Create persists a new verification. The id is derived from the submission
// time in milliseconds and bumped past the current maximum when two
// submissions land within the same millisecond.
func (r *StoreRepository) Create(ctx context.Context, v *Verification) (*Verification, error) {
	created := *v

	_, err := r.verifications.Transform(func(records []recordstore.Record) ([]recordstore.Record, error) {
		id := time.Now().UnixMilli()
		if max := recordstore.MaxID(records); max >= id {
			id = max + 1
		}
		created.ID = id
		if created.Timestamp == "" {
			created.Timestamp = recordstore.Now()
		}

		rec, err := recordstore.Encode(created)
		if err != nil {
			return nil, fmt.Errorf("failed to encode verification: %w", err)
		}
		return append(records, rec), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// List returns every stored verification in insertion order.
func (r *StoreRepository) List(ctx context.Context) ([]Verification, error) {
	records := r.verifications.ReadAll()

	items := make([]Verification, 0, len(records))
	for _, rec := range records {
		var v Verification
		if err := recordstore.Decode(rec, &v); err != nil {
			r.logger.Warn("skipping undecodable verification record", zap.Error(err))
			continue
		}
		items = append(items, v)
	}
	return items, nil
}

// Get returns the verification with the given id.
func (r *StoreRepository) Get(ctx context.Context, id int64) (*Verification, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			v := items[i]
			return &v, nil
		}
	}
	return nil, recordstore.ErrNotFound
}

// Update runs fn against the matching record inside a single locked
// read-modify-write, so concurrent updates of the same verification are
// serialized. It returns the record as fn left it and whether it was written.
func (r *StoreRepository) Update(ctx context.Context, id int64, fn func(v *Verification) (bool, error)) (*Verification, bool, error) {
	var (
		updated Verification
		changed bool
	)

	_, err := r.verifications.Transform(func(records []recordstore.Record) ([]recordstore.Record, error) {
		for i, rec := range records {
			recID, ok := recordstore.Int64(rec["id"])
			if !ok || recID != id {
				continue
			}

			var v Verification
			if err := recordstore.Decode(rec, &v); err != nil {
				return nil, fmt.Errorf("failed to decode verification %d: %w", id, err)
			}

			apply, err := fn(&v)
			if err != nil {
				return nil, err
			}
			updated = v
			if !apply {
				return records, nil
			}

			next, err := recordstore.Encode(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode verification %d: %w", id, err)
			}
			records[i] = next
			changed = true
			return records, nil
		}
		return nil, recordstore.ErrNotFound
	})
	if err != nil {
		return nil, false, err
	}
	return &updated, changed, nil
}
