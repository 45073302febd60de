package filter

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"wastereport/internal/reports"
)

// ProximityEpsilon is the half-width of the coordinate bounding box in
// degrees, roughly 50 m.
const ProximityEpsilon = 0.0005

// DateLayout is the accepted calendar date format.
const DateLayout = "2006-01-02"

// Request is the admin dashboard filter. Empty fields impose no constraint.
type Request struct {
	Status   string `json:"status" form:"status"`
	Location string `json:"location" form:"location"`
	DateFrom string `json:"date_from" form:"date_from"`
	DateTo   string `json:"date_to" form:"date_to"`
}

// Warning reports input that was ignored for filtering.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// LocationMode tells how a location term was interpreted.
type LocationMode string

const (
	LocationNone        LocationMode = ""
	LocationCoordinates LocationMode = "coordinates"
	LocationText        LocationMode = "text"
)

// Build maps a Request to a conjunctive Query capped at the admin list size.
// It is pure: same input, same output.
func Build(req Request) (reports.Query, []Warning) {
	req = req.trimmed()
	q := reports.Query{Limit: reports.AdminListCap}
	var warnings []Warning

	if req.Status != "" {
		q.Predicates = append(q.Predicates, reports.EqualityFilter{Field: reports.FieldStatus, Value: req.Status})
	}

	var dr reports.DateRangeFilter
	if req.DateFrom != "" {
		if d, ok := parseDate(req.DateFrom); ok {
			dr.From = &d
		} else {
			warnings = append(warnings, Warning{Field: "date_from", Message: "expected YYYY-MM-DD, filter ignored"})
		}
	}
	if req.DateTo != "" {
		if d, ok := parseDate(req.DateTo); ok {
			dr.To = &d
		} else {
			warnings = append(warnings, Warning{Field: "date_to", Message: "expected YYYY-MM-DD, filter ignored"})
		}
	}
	if dr.From != nil || dr.To != nil {
		q.Predicates = append(q.Predicates, dr)
	}

	if p := locationPredicate(req.Location); p != nil {
		q.Predicates = append(q.Predicates, p)
	}
	return q, warnings
}

// ClassifyLocation reports how Build would interpret term.
func ClassifyLocation(term string) LocationMode {
	switch locationPredicate(strings.TrimSpace(term)).(type) {
	case reports.ProximityFilter:
		return LocationCoordinates
	case reports.SubstringFilter:
		return LocationText
	default:
		return LocationNone
	}
}

// locationPredicate treats "lat,lng" as a point and anything else as
// address text.
func locationPredicate(term string) reports.Predicate {
	if term == "" {
		return nil
	}
	if lat, lng, ok := parsePoint(term); ok {
		return reports.ProximityFilter{Latitude: lat, Longitude: lng, Epsilon: ProximityEpsilon}
	}
	return reports.SubstringFilter{Term: term}
}

func parsePoint(term string) (float64, float64, bool) {
	latRaw, lngRaw, found := strings.Cut(term, ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || !finite(lat) {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil || !finite(lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseDate yields midnight UTC of the given calendar day.
func parseDate(s string) (time.Time, bool) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func (r Request) trimmed() Request {
	return Request{
		Status:   strings.TrimSpace(r.Status),
		Location: strings.TrimSpace(r.Location),
		DateFrom: strings.TrimSpace(r.DateFrom),
		DateTo:   strings.TrimSpace(r.DateTo),
	}
}

// Result is what the dashboard renders.
type Result struct {
	Reports  []reports.Report `json:"reports"`
	Filters  Request          `json:"filters"`
	Location LocationMode     `json:"location_mode,omitempty"`
	Warnings []Warning        `json:"warnings"`
}

// Engine runs filter requests against a Store.
type Engine struct {
	store reports.Store
}

func NewEngine(store reports.Store) *Engine {
	return &Engine{store: store}
}

func (e *Engine) Dashboard(ctx context.Context, req Request) (Result, error) {
	q, warnings := Build(req)
	out, err := e.store.List(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if out == nil {
		out = []reports.Report{}
	}
	if warnings == nil {
		warnings = []Warning{}
	}
	return Result{
		Reports:  out,
		Filters:  req.trimmed(),
		Location: ClassifyLocation(req.Location),
		Warnings: warnings,
	}, nil
}
