package audit

import (
	"strings"

	"wastereport/internal/reports"
)

// Diff compares r against p and returns the fields whose effective value
// would change, in TrackedFields order. Unset and "" compare equal.
// A nil or empty proposed status never counts as a change.
func Diff(r reports.Report, p Proposed) []Change {
	var out []Change
	for _, f := range TrackedFields {
		next, ok := proposedValue(p, f)
		if !ok {
			continue
		}
		cur := currentValue(r, f)
		if cur == next {
			continue
		}
		out = append(out, Change{Field: f, OldValue: nullable(cur), NewValue: next})
	}
	return out
}

// Apply writes every supplied value of p onto r, including ones equal to the
// current value.
func Apply(r *reports.Report, p Proposed) {
	for _, f := range TrackedFields {
		v, ok := proposedValue(p, f)
		if !ok {
			continue
		}
		switch f {
		case FieldStatus:
			r.Status = reports.Status(v)
		case FieldPriority:
			r.Priority = reports.Priority(v)
		case FieldWasteCategory:
			r.WasteCategory = v
		case FieldQuantity:
			r.Quantity = v
		}
	}
}

// Normalize trims surrounding whitespace on every supplied value.
func (p Proposed) Normalize() Proposed {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return Proposed{
		Status:        trim(p.Status),
		Priority:      trim(p.Priority),
		WasteCategory: trim(p.WasteCategory),
		Quantity:      trim(p.Quantity),
	}
}

// Validate rejects values the Report cannot hold.
func (p Proposed) Validate() error {
	if v, ok := proposedValue(p, FieldStatus); ok && !reports.Status(v).Valid() {
		return ErrInvalidValue
	}
	if v, ok := proposedValue(p, FieldPriority); ok && v != "" && !reports.Priority(v).Valid() {
		return ErrInvalidValue
	}
	for _, f := range []Field{FieldWasteCategory, FieldQuantity} {
		if v, ok := proposedValue(p, f); ok && len([]rune(v)) > maxTextLength {
			return ErrInvalidValue
		}
	}
	return nil
}

// Empty reports whether p requests no change at all.
func (p Proposed) Empty() bool {
	for _, f := range TrackedFields {
		if _, ok := proposedValue(p, f); ok {
			return false
		}
	}
	return true
}

func proposedValue(p Proposed, f Field) (string, bool) {
	var v *string
	switch f {
	case FieldStatus:
		if p.Status == nil || *p.Status == "" {
			return "", false
		}
		v = p.Status
	case FieldPriority:
		v = p.Priority
	case FieldWasteCategory:
		v = p.WasteCategory
	case FieldQuantity:
		v = p.Quantity
	}
	if v == nil {
		return "", false
	}
	return *v, true
}

func currentValue(r reports.Report, f Field) string {
	switch f {
	case FieldStatus:
		return string(r.Status)
	case FieldPriority:
		return string(r.Priority)
	case FieldWasteCategory:
		return r.WasteCategory
	case FieldQuantity:
		return r.Quantity
	default:
		return ""
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
