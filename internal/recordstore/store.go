package recordstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("record not found")

// Record is a single JSON object in a collection. Numbers decode as
// json.Number so identifiers survive rewrite cycles unchanged.
type Record map[string]any

// KeyFunc extracts the upsert key from a record.
type KeyFunc func(Record) any

// Store hands out collection handles rooted at a data directory.
type Store struct {
	dir    string
	logger *zap.Logger

	mu          sync.Mutex
	collections map[string]*Collection
}

// Open prepares the data directory and returns a store.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Store{
		dir:         dir,
		logger:      logger,
		collections: make(map[string]*Collection),
	}, nil
}

// Dir returns the data directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// Collection returns the handle for a named collection. Handles are shared:
// every caller asking for the same name gets the same handle and therefore
// the same lock.
func (s *Store) Collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c
	}

	c := &Collection{
		name:   name,
		path:   filepath.Join(s.dir, name+".json"),
		logger: s.logger,
	}
	s.collections[name] = c
	return c
}

// Collection is a mutex-guarded handle to one collection file. The file
// holds a single pretty-printed JSON array and is rewritten whole on every
// mutation. The mutex is held across the full read-modify-write cycle, so
// concurrent writers never lose updates.
type Collection struct {
	name   string
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// ReadAll returns every record in the collection. It never fails: a missing
// file reads as empty, and an unreadable or corrupt file reads as empty
// with a warning logged. Use Verify to surface what this path swallows.
func (c *Collection) ReadAll() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Transform runs fn over the decoded record sequence under the collection
// lock and persists whatever it returns. Every other mutating operation is
// built on it; repositories use it directly when they need a compound
// atomic step. When fn returns an error nothing is written.
func (c *Collection) Transform(fn func(records []Record) ([]Record, error)) ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := fn(c.load())
	if err != nil {
		return nil, err
	}
	if err := c.save(records); err != nil {
		return nil, err
	}
	return records, nil
}

// Append adds one record. When the caller has not set them, an id one past
// the collection's current maximum and an ISO 8601 timestamp are assigned.
func (c *Collection) Append(rec Record) (Record, error) {
	var out Record
	_, err := c.Transform(func(records []Record) ([]Record, error) {
		out = Clone(rec)
		if _, ok := out["id"]; !ok {
			out["id"] = MaxID(records) + 1
		}
		if _, ok := out["timestamp"]; !ok {
			out["timestamp"] = Now()
		}
		return append(records, out), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert merges rec over the first record with a matching key, or appends
// it when no record matches. Merging replaces fields one by one and leaves
// unrelated stored fields alone.
func (c *Collection) Upsert(rec Record, key KeyFunc) (Record, error) {
	var out Record
	_, err := c.Transform(func(records []Record) ([]Record, error) {
		want := key(rec)
		for i, existing := range records {
			if key(existing) == want {
				merged := Clone(existing)
				for k, v := range rec {
					merged[k] = v
				}
				records[i] = merged
				out = merged
				return records, nil
			}
		}

		out = Clone(rec)
		if _, ok := out["timestamp"]; !ok {
			out["timestamp"] = Now()
		}
		return append(records, out), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Verify re-parses the collection file and returns the error the tolerant
// read path swallows. A missing file is healthy.
func (c *Collection) Verify() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read collection %s: %w", c.name, err)
	}
	if _, err := decode(data); err != nil {
		return fmt.Errorf("collection %s is corrupt: %w", c.name, err)
	}
	return nil
}

func (c *Collection) load() []Record {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}
	}
	if err != nil {
		c.logger.Warn("failed to read collection, treating as empty",
			zap.String("collection", c.name),
			zap.String("path", c.path),
			zap.Error(err))
		return []Record{}
	}

	records, err := decode(data)
	if err != nil {
		c.logger.Warn("collection file is corrupt, treating as empty",
			zap.String("collection", c.name),
			zap.String("path", c.path),
			zap.Error(err))
		return []Record{}
	}
	return records
}

func (c *Collection) save(records []Record) error {
	if records == nil {
		records = []Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", c.name, err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", c.name, err)
	}
	return nil
}

func decode(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Now returns the current UTC time in the ISO 8601 form records carry.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Clone returns a shallow copy of a record.
func Clone(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// MaxID returns the largest numeric id in a record sequence, or 0.
func MaxID(records []Record) int64 {
	var max int64
	for _, rec := range records {
		if id, ok := Int64(rec["id"]); ok && id > max {
			max = id
		}
	}
	return max
}

// Int64 coerces the numeric representations that appear in record maps,
// fresh int64 writes as well as json.Number reads, into an int64.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

// Float64 coerces the numeric representations that appear in record maps
// into a float64.
func Float64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Decode unmarshals a record into a typed value through its JSON form.
func Decode(rec Record, v any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Encode converts a typed value into a record through its JSON form.
func Encode(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
