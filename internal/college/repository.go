package college

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when a college does not exist.
	ErrNotFound = errors.New("college not found")

	// ErrDuplicateID is returned when inserting a record whose ID is taken.
	ErrDuplicateID = errors.New("college id already exists")
)

// Repository is the catalog collaborator. Find applies hard filters and
// returns the candidate collection for ranking; an empty collection is not
// an error.
type Repository interface {
	Find(ctx context.Context, filter Filter) (Collection, error)
	GetByID(ctx context.Context, id int64) (*Record, error)
	Search(ctx context.Context, query string, limit int) ([]Record, error)
}

// InMemoryRepository is a thread-safe in-memory catalog.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[int64]Record
	columns AttributeSet
}

// NewInMemoryRepository creates an empty catalog exposing the full schema.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[int64]Record),
		columns: FullSchema(),
	}
}

// NewInMemoryRepositoryWithColumns creates an empty catalog that only
// exposes the given columns, as a narrower data source would.
func NewInMemoryRepositoryWithColumns(columns AttributeSet) *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[int64]Record),
		columns: columns,
	}
}

// Insert stores a record. Derived attributes are filled in on the way in.
func (r *InMemoryRepository) Insert(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
	}
	r.records[rec.ID] = Derive(rec)
	return nil
}

// Len returns the number of stored records.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Find returns the records matching filter ordered by ID.
func (r *InMemoryRepository) Find(ctx context.Context, filter Filter) (Collection, error) {
	if err := ctx.Err(); err != nil {
		return Collection{}, err
	}
	filter = filter.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.records))
	for _, rec := range r.sortedLocked() {
		if filter.Matches(&rec) {
			out = append(out, rec)
		}
	}
	return Collection{Columns: r.columns, Records: out}, nil
}

// GetByID returns a deep copy of the record with the given ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec = rec.Clone()
	return &rec, nil
}

// Search matches query as a case-insensitive substring of the name, ordered
// by name. An empty query lists the first records by ID.
func (r *InMemoryRepository) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	all := r.sortedLocked()
	r.mu.RUnlock()

	var out []Record
	if query == "" {
		out = all
	} else {
		for _, rec := range all {
			if strings.Contains(strings.ToLower(rec.Name), query) {
				out = append(out, rec)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) sortedLocked() []Record {
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Replace swaps the whole catalog for records. The swap is all or nothing:
// on a duplicate ID the current records stay in place.
func (r *InMemoryRepository) Replace(records []Record) error {
	next := make(map[int64]Record, len(records))
	for _, rec := range records {
		if _, exists := next[rec.ID]; exists {
			return fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
		}
		next[rec.ID] = Derive(rec)
	}

	r.mu.Lock()
	r.records = next
	r.mu.Unlock()
	return nil
}

// ReadJSON reads a JSON array of flat college objects.
func ReadJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return records, nil
}

// LoadJSON reads a catalog file into a new in-memory catalog.
func LoadJSON(path string) (*InMemoryRepository, error) {
	records, err := ReadJSON(path)
	if err != nil {
		return nil, err
	}
	repo := NewInMemoryRepository()
	if err := repo.Replace(records); err != nil {
		return nil, err
	}
	return repo, nil
}
