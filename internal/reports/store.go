package reports

import "context"

// Store owns Report persistence. It performs no business validation beyond
// format checks; callers enforce invariants before writing.
type Store interface {
	Create(ctx context.Context, r Report) (string, error)
	Get(ctx context.Context, id string) (Report, error)
	// List returns matching Reports ordered by creation time descending,
	// never more than MaxListLimit rows.
	List(ctx context.Context, q Query) ([]Report, error)
	// Update runs mutate on the current Report while holding it exclusively.
	// If mutate returns an error nothing is persisted.
	Update(ctx context.Context, id string, mutate func(r *Report) error) error
}
