package reports

import (
	"errors"
	"time"
)

// Report is a citizen-submitted record of a waste-dumping incident.
//
// Invariants:
// - Address is non-empty OR both Latitude and Longitude are set.
// - Latitude in [-90, 90], Longitude in [-180, 180] when set.
// - Reports are never deleted.
//
// Empty strings stand for "unset" on the optional text fields; repositories
// persist them as NULL.
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created"`

	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`

	Description string `json:"description,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`

	Status        Status   `json:"status"`
	Priority      Priority `json:"priority,omitempty"`
	WasteCategory string   `json:"waste_category,omitempty"`
	Quantity      string   `json:"quantity,omitempty"`
}

type Status string

const (
	StatusReceived   Status = "received"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusInProgress, StatusClosed:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// List caps. These are hard limits, not user-controllable parameters.
const (
	AdminListCap  = 300
	PublicListCap = 200
	MaxListLimit  = AdminListCap
)

var (
	ErrNotFound       = errors.New("reports: not found")
	ErrInvalidReport  = errors.New("reports: invalid report")
	ErrNilMutator     = errors.New("reports: mutator is nil")
	ErrImmutableField = errors.New("reports: id and creation time are immutable")
)

// HasCoordinates reports whether both coordinates are set.
func (r Report) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Validate checks the location invariant and coordinate ranges.
func (r Report) Validate() error {
	if r.Address == "" && !r.HasCoordinates() {
		return ErrInvalidReport
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return ErrInvalidReport
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return ErrInvalidReport
	}
	if !r.Status.Valid() {
		return ErrInvalidReport
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return ErrInvalidReport
	}
	return nil
}

// Summary is the public projection of a Report.
type Summary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created"`
	Address       *string   `json:"address"`
	Latitude      *float64  `json:"lat"`
	Longitude     *float64  `json:"lng"`
	Status        Status    `json:"status"`
	Priority      *string   `json:"priority"`
	WasteCategory *string   `json:"category"`
	Quantity      *string   `json:"quantity"`
}

func (r Report) Summary() Summary {
	return Summary{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt.UTC(),
		Address:       optional(r.Address),
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Status:        r.Status,
		Priority:      optional(string(r.Priority)),
		WasteCategory: optional(r.WasteCategory),
		Quantity:      optional(r.Quantity),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clone(r Report) Report {
	out := r
	if r.Latitude != nil {
		v := *r.Latitude
		out.Latitude = &v
	}
	if r.Longitude != nil {
		v := *r.Longitude
		out.Longitude = &v
	}
	return out
}
