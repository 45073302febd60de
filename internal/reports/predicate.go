package reports

import (
	"math"
	"strings"
	"time"
)

// Predicate is one constraint over Reports. The set of variants is closed:
// EqualityFilter, DateRangeFilter, ProximityFilter and SubstringFilter.
// A Query ANDs all of its predicates.
type Predicate interface {
	isPredicate()
}

// Field names a Report column usable in an EqualityFilter.
type Field string

const (
	FieldStatus   Field = "status"
	FieldPriority Field = "priority"
)

// EqualityFilter matches Reports whose Field equals Value exactly.
// Unknown values are not rejected; they simply match nothing.
type EqualityFilter struct {
	Field Field
	Value string
}

// DateRangeFilter is the half-open interval From <= created < To.
// A nil bound is unconstrained.
type DateRangeFilter struct {
	From *time.Time
	To   *time.Time
}

// ProximityFilter is a bounding box of +/- Epsilon degrees around a point,
// inclusive on every side. Coordinates compare at micro-degree precision,
// the scale they are stored at. Reports without both coordinates never match.
type ProximityFilter struct {
	Latitude  float64
	Longitude float64
	Epsilon   float64
}

// SubstringFilter matches Reports whose address contains Term, case-insensitively.
type SubstringFilter struct {
	Term string
}

func (EqualityFilter) isPredicate()  {}
func (DateRangeFilter) isPredicate() {}
func (ProximityFilter) isPredicate() {}
func (SubstringFilter) isPredicate() {}

// Query is a conjunction of predicates, ordered by creation time descending.
type Query struct {
	Predicates []Predicate
	Limit      int
}

// clampLimit maps any requested limit into [1, MaxListLimit].
func clampLimit(n int) int {
	if n <= 0 || n > MaxListLimit {
		return MaxListLimit
	}
	return n
}

// Matches evaluates p against r in memory.
func Matches(p Predicate, r Report) bool {
	switch f := p.(type) {
	case EqualityFilter:
		switch f.Field {
		case FieldStatus:
			return string(r.Status) == f.Value
		case FieldPriority:
			return string(r.Priority) == f.Value
		default:
			return false
		}
	case DateRangeFilter:
		if f.From != nil && r.CreatedAt.Before(*f.From) {
			return false
		}
		if f.To != nil && !r.CreatedAt.Before(*f.To) {
			return false
		}
		return true
	case ProximityFilter:
		if !r.HasCoordinates() {
			return false
		}
		eps := micro(f.Epsilon)
		return math.Abs(micro(*r.Latitude)-micro(f.Latitude)) <= eps &&
			math.Abs(micro(*r.Longitude)-micro(f.Longitude)) <= eps
	case SubstringFilter:
		if r.Address == "" {
			return false
		}
		return strings.Contains(strings.ToLower(r.Address), strings.ToLower(f.Term))
	default:
		return false
	}
}

// CoordinateScale is the number of decimal places stored for a coordinate.
const CoordinateScale = 6

// micro rounds degrees to whole micro-degrees so boundary comparisons are exact.
func micro(deg float64) float64 {
	return math.Round(deg * 1e6)
}

// MatchesAll reports whether r satisfies every predicate.
func MatchesAll(ps []Predicate, r Report) bool {
	for _, p := range ps {
		if !Matches(p, r) {
			return false
		}
	}
	return true
}
