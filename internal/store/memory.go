package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digitalhippo/hippo-backend/internal/models"
)

type memoryEntry struct {
	seq    int64
	fields models.JSONB
}

// MemoryStore keeps records in process. Reads and writes copy the field maps
// so callers never alias stored state. Used for local development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	seq  int64
	data map[models.Collection]map[string]*memoryEntry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[models.Collection]map[string]*memoryEntry),
		now:  time.Now,
	}
}

func (s *MemoryStore) Find(ctx context.Context, collection models.Collection, filter Filter, opts FindOptions) ([]Record, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	matched := make([]*memoryEntry, 0)
	for _, e := range s.data[collection] {
		if filter.Matches(e.fields) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sortEntries(matched, opts)

	total := int64(len(matched))
	start := opts.offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	records := make([]Record, 0, end-start)
	for _, e := range matched[start:end] {
		records = append(records, toMemoryRecord(collection, e))
	}
	return records, total, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, collection models.Collection, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[collection][id]
	if !ok {
		return Record{}, fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	return toMemoryRecord(collection, e), nil
}

func (s *MemoryStore) Create(ctx context.Context, collection models.Collection, data models.JSONB) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	fields, err := normalize(withoutSystemFields(data))
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if collection == models.CollectionUsers {
		if email := fields.String("email"); email != "" && s.emailTaken(email, "") {
			return Record{}, fmt.Errorf("email %s: %w", email, ErrConflict)
		}
	}

	id := uuid.NewString()
	now := s.now().UTC().Format(time.RFC3339Nano)
	fields["id"] = id
	fields["createdAt"] = now
	fields["updatedAt"] = now

	if s.data[collection] == nil {
		s.data[collection] = make(map[string]*memoryEntry)
	}
	s.seq++
	e := &memoryEntry{seq: s.seq, fields: fields}
	s.data[collection][id] = e

	return toMemoryRecord(collection, e), nil
}

func (s *MemoryStore) Update(ctx context.Context, collection models.Collection, id string, data models.JSONB) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	patch, err := normalize(withoutSystemFields(data))
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[collection][id]
	if !ok {
		return Record{}, fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	if collection == models.CollectionUsers {
		if email := patch.String("email"); email != "" && s.emailTaken(email, id) {
			return Record{}, fmt.Errorf("email %s: %w", email, ErrConflict)
		}
	}

	fields := models.Merge(e.fields, patch)
	fields["updatedAt"] = s.now().UTC().Format(time.RFC3339Nano)
	e.fields = fields

	return toMemoryRecord(collection, e), nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection models.Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][id]; !ok {
		return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	delete(s.data[collection], id)
	return nil
}

// caller holds s.mu
func (s *MemoryStore) emailTaken(email, exceptID string) bool {
	for id, e := range s.data[models.CollectionUsers] {
		if id != exceptID && e.fields.String("email") == email {
			return true
		}
	}
	return false
}

func toMemoryRecord(collection models.Collection, e *memoryEntry) Record {
	fields := e.fields.Clone()
	return Record{ID: fields.String("id"), Collection: collection, Fields: fields}
}

// normalize gives stored values the same shapes a JSON column scan would:
// float64 numbers, []interface{} lists, ids as strings.
func normalize(data models.JSONB) (models.JSONB, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var out models.JSONB
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if out == nil {
		out = models.JSONB{}
	}
	return out, nil
}

func sortEntries(entries []*memoryEntry, opts FindOptions) {
	less := func(a, b *memoryEntry) bool { return a.seq < b.seq }
	if opts.Sort != "" && opts.Sort != "createdAt" {
		field := opts.Sort
		less = func(a, b *memoryEntry) bool {
			an, aok := a.fields.Number(field)
			bn, bok := b.fields.Number(field)
			if aok && bok && an != bn {
				return an < bn
			}
			as, bs := fmt.Sprint(a.fields[field]), fmt.Sprint(b.fields[field])
			if as != bs {
				return as < bs
			}
			return a.seq < b.seq
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if opts.Desc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}
