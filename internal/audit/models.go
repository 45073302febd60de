package audit

import (
	"errors"
	"time"
)

// Record is one immutable field change on a Report.
//
// Invariants:
// - Exactly one Record per tracked field whose value actually changed in an update.
// - Records are never updated or deleted.
// - All Records from one update share ChangedAt.
type Record struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	AdminID   string    `json:"admin_id"`
	ChangedAt time.Time `json:"changed_at"`
	Field     Field     `json:"field"`
	// OldValue is nil when the field was unset before the change.
	OldValue *string `json:"old_value"`
	NewValue string  `json:"new_value"`
}

// Field is a tracked Report attribute.
type Field string

const (
	FieldStatus        Field = "status"
	FieldPriority      Field = "priority"
	FieldWasteCategory Field = "waste_category"
	FieldQuantity      Field = "quantity"
)

// TrackedFields is the fixed order in which changes are reported.
var TrackedFields = []Field{FieldStatus, FieldPriority, FieldWasteCategory, FieldQuantity}

func (f Field) Valid() bool {
	switch f {
	case FieldStatus, FieldPriority, FieldWasteCategory, FieldQuantity:
		return true
	default:
		return false
	}
}

// Proposed is a partial assignment over the tracked fields.
// A nil pointer means "no change requested".
type Proposed struct {
	Status        *string `json:"status,omitempty"`
	Priority      *string `json:"priority,omitempty"`
	WasteCategory *string `json:"waste_category,omitempty"`
	Quantity      *string `json:"quantity,omitempty"`
}

// Change is one (field, old, new) tuple produced by Diff.
type Change struct {
	Field    Field   `json:"field"`
	OldValue *string `json:"old_value"`
	NewValue string  `json:"new_value"`
}

// AppliedChanges is the result of a successful update. An empty Changes
// slice is a valid no-op outcome.
type AppliedChanges struct {
	ReportID  string    `json:"report_id"`
	AppliedAt time.Time `json:"applied_at"`
	Changes   []Change  `json:"changes"`
}

const (
	DefaultListLimit = 500
	maxTextLength    = 100
)

var (
	ErrInvalidValue  = errors.New("audit: invalid field value")
	ErrMissingAdmin  = errors.New("audit: admin id is required")
	ErrUnknownAdmin  = errors.New("audit: admin account does not exist")
	ErrNotConfigured = errors.New("audit: repository not configured")
)
