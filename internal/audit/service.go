package audit

import (
	"context"
	"errors"
	"time"

	"wastereport/internal/ids"
	"wastereport/internal/reports"
	"wastereport/pkg/logger"
)

// Repository persists a Report mutation and its Records as one unit.
//
// It MUST be append-only for Records. No Update/Delete methods exist.
type Repository interface {
	// Apply holds the Report exclusively, passes the current value to fn and
	// persists the mutated Report with the returned Records. If fn or any
	// write fails nothing is committed.
	Apply(ctx context.Context, reportID string, fn func(r *reports.Report) ([]Record, error)) error
	// List returns Records newest first, capped at DefaultListLimit.
	List(ctx context.Context, limit int) ([]Record, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// ApplyUpdate diffs p against the stored Report, applies every supplied value
// and appends one Record per changed field, atomically.
func (s *Service) ApplyUpdate(ctx context.Context, reportID, adminID string, p Proposed) (AppliedChanges, error) {
	if s.repo == nil {
		return AppliedChanges{}, ErrNotConfigured
	}
	if adminID == "" {
		return AppliedChanges{}, ErrMissingAdmin
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return AppliedChanges{}, err
	}

	var out AppliedChanges
	err := s.repo.Apply(ctx, reportID, func(r *reports.Report) ([]Record, error) {
		changes := Diff(*r, p)
		at := s.clock().UTC()
		Apply(r, p)

		recs := make([]Record, 0, len(changes))
		for _, c := range changes {
			recs = append(recs, Record{
				ID:        ids.NewAt(at),
				ReportID:  r.ID,
				AdminID:   adminID,
				ChangedAt: at,
				Field:     c.Field,
				OldValue:  c.OldValue,
				NewValue:  c.NewValue,
			})
		}
		if changes == nil {
			changes = []Change{}
		}
		out = AppliedChanges{ReportID: r.ID, AppliedAt: at, Changes: changes}
		return recs, nil
	})
	if err != nil {
		if !errors.Is(err, reports.ErrNotFound) {
			logger.From(ctx).Error("report update rolled back", "report_id", reportID, "admin_id", adminID, "err", err)
		}
		return AppliedChanges{}, err
	}

	if len(out.Changes) > 0 {
		logger.From(ctx).Info("report updated", "report_id", reportID, "admin_id", adminID, "changes", len(out.Changes))
	}
	return out, nil
}

// List returns the most recent Records, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Record, error) {
	if s.repo == nil {
		return nil, ErrNotConfigured
	}
	return s.repo.List(ctx, clampLimit(limit))
}

func clampLimit(n int) int {
	if n <= 0 || n > DefaultListLimit {
		return DefaultListLimit
	}
	return n
}
