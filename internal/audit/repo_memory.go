package audit

import (
	"context"
	"sort"
	"sync"

	"wastereport/internal/reports"
)

// MemoryRepo pairs a reports.MemoryRepo with an in-memory Record log.
// It is not intended for production use.
type MemoryRepo struct {
	mu      sync.Mutex
	reports *reports.MemoryRepo
	records []Record

	// failAppend, when set, makes Apply fail after fn ran. Tests use it to
	// observe rollback.
	failAppend error
}

func NewMemoryRepo(store *reports.MemoryRepo) *MemoryRepo {
	return &MemoryRepo{reports: store}
}

func (m *MemoryRepo) Apply(ctx context.Context, reportID string, fn func(r *reports.Report) ([]Record, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []Record
	err := m.reports.Update(ctx, reportID, func(r *reports.Report) error {
		recs, err := fn(r)
		if err != nil {
			return err
		}
		if m.failAppend != nil {
			return m.failAppend
		}
		pending = recs
		return nil
	})
	if err != nil {
		return err
	}
	m.records = append(m.records, pending...)
	return nil
}

func (m *MemoryRepo) List(ctx context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].ChangedAt.After(out[j].ChangedAt)
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Records returns every Record in insertion order.
func (m *MemoryRepo) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
