package college

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func seedRepository(t *testing.T) *InMemoryRepository {
	t.Helper()
	repo := NewInMemoryRepository()
	records := []Record{
		{ID: 3, Name: "Coastal University", State: "CA", Values: map[Attribute]float64{CostOfAttendance: 30000}},
		{ID: 1, Name: "Pacific College", State: "CA", Values: map[Attribute]float64{CostOfAttendance: 60000}},
		{ID: 2, Name: "Empire State University", State: "NY", Values: map[Attribute]float64{CostOfAttendance: 25000}},
		{ID: 4, Name: "Mystery Institute", State: "NY"},
	}
	for _, rec := range records {
		if err := repo.Insert(rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	return repo
}

func ids(records []Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInMemoryRepository_Insert_Duplicate(t *testing.T) {
	repo := seedRepository(t)
	err := repo.Insert(Record{ID: 1, Name: "Again"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if repo.Len() != 4 {
		t.Errorf("expected 4 records, got %d", repo.Len())
	}
}

func TestInMemoryRepository_Find(t *testing.T) {
	repo := seedRepository(t)
	ceiling := 40000.0

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"no filter returns all by id", Filter{}, []int64{1, 2, 3, 4}},
		{"state filter", Filter{States: []string{"ca"}}, []int64{1, 3}},
		{"cost ceiling excludes missing cost", Filter{MaxCost: &ceiling}, []int64{2, 3}},
		{"combined", Filter{States: []string{"CA"}, MaxCost: &ceiling}, []int64{3}},
		{"no match", Filter{States: []string{"TX"}}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := repo.Find(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Find failed: %v", err)
			}
			if got := ids(c.Records); !equalIDs(got, tt.want) {
				t.Errorf("Find() = %v, want %v", got, tt.want)
			}
			if len(c.Columns) != len(AllAttributes()) {
				t.Error("expected the full schema as columns")
			}
		})
	}
}

func TestInMemoryRepository_Find_Columns(t *testing.T) {
	cols := NewAttributeSet(AdmissionRate)
	repo := NewInMemoryRepositoryWithColumns(cols)
	if err := repo.Insert(Record{ID: 1}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	c, err := repo.Find(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(c.Columns) != 1 || !c.Columns.Has(AdmissionRate) {
		t.Errorf("expected narrowed columns, got %v", c.Columns.Sorted())
	}
}

func TestInMemoryRepository_Find_Cancelled(t *testing.T) {
	repo := seedRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.Find(ctx, Filter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryRepository_GetByID(t *testing.T) {
	repo := seedRepository(t)

	rec, err := repo.GetByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if rec.Name != "Empire State University" {
		t.Errorf("unexpected record: %+v", rec)
	}

	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := seedRepository(t)
	ctx := context.Background()

	rec, err := repo.GetByID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	rec.Values[CostOfAttendance] = 1

	c, err := repo.Find(ctx, Filter{States: []string{"CA"}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	for i := range c.Records {
		c.Records[i].Values[CostOfAttendance] = 2
	}

	for id, want := range map[int64]float64{2: 25000, 3: 30000} {
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if v, _ := got.Value(CostOfAttendance); v != want {
			t.Errorf("college %d cost = %f through a returned record, want %f", id, v, want)
		}
	}
}

func TestInMemoryRepository_Search(t *testing.T) {
	repo := seedRepository(t)

	tests := []struct {
		name  string
		query string
		limit int
		want  []int64
	}{
		{"substring ordered by name", "university", 0, []int64{3, 2}},
		{"case-insensitive", "PACIFIC", 0, []int64{1}},
		{"empty query lists by id", "", 0, []int64{1, 2, 3, 4}},
		{"limit", "", 2, []int64{1, 2}},
		{"no match", "zzz", 0, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(context.Background(), tt.query, tt.limit)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, ids(got), tt.want)
			}
		})
	}
}

func TestInMemoryRepository_DerivesOnInsert(t *testing.T) {
	repo := NewInMemoryRepository()
	locale := 12
	if err := repo.Insert(Record{ID: 1, Locale: &locale}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	rec, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if v, ok := rec.Value(UrbanicityScore); !ok || v != 1.0 {
		t.Errorf("expected derived urbanicity 1.0, got %v (%v)", v, ok)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `[
		{"id": 1, "name": "Alpha", "state": "ca", "admission_rate": 0.2},
		{"id": 2, "name": "Beta", "state": "NY", "cost_of_attendance": 40000}
	]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	repo, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if repo.Len() != 2 {
		t.Errorf("expected 2 records, got %d", repo.Len())
	}
	c, err := repo.Find(context.Background(), Filter{States: []string{"CA"}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(c.Records) != 1 || c.Records[0].Name != "Alpha" {
		t.Errorf("expected Alpha for CA, got %v", ids(c.Records))
	}
}

func TestLoadJSON_Errors(t *testing.T) {
	if _, err := LoadJSON("/nonexistent/catalog.json"); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "dup.json")
	if err := os.WriteFile(path, []byte(`[{"id":1,"name":"A"},{"id":1,"name":"B"}]`), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	if _, err := LoadJSON(path); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestInMemoryRepository_Replace(t *testing.T) {
	repo := NewInMemoryRepository()
	if err := repo.Insert(Record{ID: 1, Name: "Old"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := repo.Replace([]Record{{ID: 2, Name: "New"}, {ID: 3, Name: "Newer"}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if repo.Len() != 2 {
		t.Errorf("expected 2 records after replace, got %d", repo.Len())
	}
	if _, err := repo.GetByID(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected old record gone, got %v", err)
	}

	err := repo.Replace([]Record{{ID: 9, Name: "A"}, {ID: 9, Name: "B"}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if repo.Len() != 2 {
		t.Errorf("failed replace must keep current records, got %d", repo.Len())
	}
}
