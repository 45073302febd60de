package reports

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Store used by tests and local runs.
// A single mutex serializes Update calls, which gives the same per-report
// exclusivity the Postgres row lock provides.
type MemoryRepo struct {
	mu      sync.Mutex
	reports map[string]Report
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{reports: map[string]Report{}}
}

func (m *MemoryRepo) Create(ctx context.Context, r Report) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = clone(r)
	return r.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return clone(r), nil
}

func (m *MemoryRepo) List(ctx context.Context, q Query) ([]Report, error) {
	m.mu.Lock()
	out := make([]Report, 0, len(m.reports))
	for _, r := range m.reports {
		if MatchesAll(q.Predicates, r) {
			out = append(out, clone(r))
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit := clampLimit(q.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) Update(ctx context.Context, id string, mutate func(r *Report) error) error {
	if mutate == nil {
		return ErrNilMutator
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.reports[id]
	if !ok {
		return ErrNotFound
	}
	next := clone(cur)
	if err := mutate(&next); err != nil {
		return err
	}
	if next.ID != cur.ID || !next.CreatedAt.Equal(cur.CreatedAt) {
		return ErrImmutableField
	}
	if err := next.Validate(); err != nil {
		return err
	}
	m.reports[id] = next
	return nil
}
