package reports

import (
	"context"
	"errors"
	"testing"
	"time"
)

func ptr(f float64) *float64 { return &f }

func seed(t *testing.T, repo *MemoryRepo, r Report) string {
	t.Helper()
	id, err := repo.Create(context.Background(), r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return id
}

func TestMemoryRepo_CreateRequiresLocation(t *testing.T) {
	repo := NewMemoryRepo()
	_, err := repo.Create(context.Background(), Report{Status: StatusReceived, Latitude: ptr(1)})
	if !errors.Is(err, ErrInvalidReport) {
		t.Fatalf("expected ErrInvalidReport, got %v", err)
	}
	if _, err := repo.Create(context.Background(), Report{Status: StatusReceived, Latitude: ptr(1), Longitude: ptr(2)}); err != nil {
		t.Fatalf("coordinates only should be accepted: %v", err)
	}
}

func TestMemoryRepo_ListOrdersNewestFirstAndCaps(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxListLimit+20; i++ {
		seed(t, repo, Report{Address: "x", Status: StatusReceived, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	out, err := repo.List(context.Background(), Query{Limit: 10_000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != MaxListLimit {
		t.Fatalf("expected %d rows, got %d", MaxListLimit, len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].CreatedAt.After(out[i-1].CreatedAt) {
			t.Fatalf("rows not in descending order at %d", i)
		}
	}

	out, _ = repo.List(context.Background(), Query{Limit: 5})
	if len(out) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(out))
	}
}

func TestMemoryRepo_ListAppliesAllPredicates(t *testing.T) {
	repo := NewMemoryRepo()
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	keep := seed(t, repo, Report{Address: "Main Street 5", Status: StatusInProgress, CreatedAt: day})
	seed(t, repo, Report{Address: "Main Street 7", Status: StatusReceived, CreatedAt: day})
	seed(t, repo, Report{Address: "Harbor Road", Status: StatusInProgress, CreatedAt: day})

	out, err := repo.List(context.Background(), Query{Predicates: []Predicate{
		EqualityFilter{Field: FieldStatus, Value: "in_progress"},
		SubstringFilter{Term: "main"},
	}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].ID != keep {
		t.Fatalf("expected only %s, got %+v", keep, out)
	}
}

func TestMemoryRepo_UpdateCommitsOnlyOnSuccess(t *testing.T) {
	repo := NewMemoryRepo()
	id := seed(t, repo, Report{Address: "x", Status: StatusReceived})

	boom := errors.New("boom")
	err := repo.Update(context.Background(), id, func(r *Report) error {
		r.Status = StatusClosed
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	got, _ := repo.Get(context.Background(), id)
	if got.Status != StatusReceived {
		t.Fatalf("failed update must not persist, got %s", got.Status)
	}

	if err := repo.Update(context.Background(), id, func(r *Report) error {
		r.Status = StatusClosed
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.Get(context.Background(), id)
	if got.Status != StatusClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}
}

func TestMemoryRepo_UpdateRejectsIdentityChanges(t *testing.T) {
	repo := NewMemoryRepo()
	id := seed(t, repo, Report{Address: "x", Status: StatusReceived})
	err := repo.Update(context.Background(), id, func(r *Report) error {
		r.CreatedAt = r.CreatedAt.Add(time.Hour)
		return nil
	})
	if !errors.Is(err, ErrImmutableField) {
		t.Fatalf("expected ErrImmutableField, got %v", err)
	}
	if err := repo.Update(context.Background(), "missing", func(*Report) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepo_GetReturnsCopy(t *testing.T) {
	repo := NewMemoryRepo()
	id := seed(t, repo, Report{Latitude: ptr(10), Longitude: ptr(20), Status: StatusReceived})
	got, _ := repo.Get(context.Background(), id)
	*got.Latitude = 99

	again, _ := repo.Get(context.Background(), id)
	if *again.Latitude != 10 {
		t.Fatalf("stored report was mutated through a returned copy")
	}
}
