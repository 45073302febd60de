package reports

import (
	"testing"
	"time"
)

func TestMatches_DateRangeIsHalfOpen(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	f := DateRangeFilter{From: &from, To: &to}

	cases := []struct {
		at   time.Time
		want bool
	}{
		{from, true},
		{from.Add(-time.Nanosecond), false},
		{to.Add(-time.Nanosecond), true},
		{to, false},
	}
	for _, c := range cases {
		if got := Matches(f, Report{CreatedAt: c.at}); got != c.want {
			t.Fatalf("created %s: expected %v, got %v", c.at, c.want, got)
		}
	}
}

func TestMatches_ProximityRequiresCoordinates(t *testing.T) {
	f := ProximityFilter{Latitude: 52.52, Longitude: 13.40, Epsilon: 0.0005}

	if !Matches(f, Report{Latitude: ptr(52.5204), Longitude: ptr(13.4004)}) {
		t.Fatalf("expected point inside box to match")
	}
	if Matches(f, Report{Latitude: ptr(52.5210), Longitude: ptr(13.40)}) {
		t.Fatalf("expected point outside box to miss")
	}
	if Matches(f, Report{Address: "52.52,13.40"}) {
		t.Fatalf("report without coordinates must not match")
	}
	if Matches(f, Report{Latitude: ptr(52.52)}) {
		t.Fatalf("report with one coordinate must not match")
	}
}

func TestMatches_ProximityIncludesExactEpsilonOnEverySide(t *testing.T) {
	f := ProximityFilter{Latitude: 47.4979, Longitude: 19.0402, Epsilon: 0.0005}
	inside := []Report{
		{Latitude: ptr(47.4984), Longitude: ptr(19.0402)},
		{Latitude: ptr(47.4974), Longitude: ptr(19.0402)},
		{Latitude: ptr(47.4979), Longitude: ptr(19.0407)},
		{Latitude: ptr(47.4979), Longitude: ptr(19.0397)},
		{Latitude: ptr(47.4984), Longitude: ptr(19.0397)},
	}
	for _, r := range inside {
		if !Matches(f, r) {
			t.Fatalf("report at %v,%v is exactly epsilon away and must match", *r.Latitude, *r.Longitude)
		}
	}
	outside := []Report{
		{Latitude: ptr(47.498401), Longitude: ptr(19.0402)},
		{Latitude: ptr(47.4979), Longitude: ptr(19.039699)},
	}
	for _, r := range outside {
		if Matches(f, r) {
			t.Fatalf("report at %v,%v is past epsilon and must not match", *r.Latitude, *r.Longitude)
		}
	}
}

func TestMatches_SubstringIsCaseInsensitive(t *testing.T) {
	f := SubstringFilter{Term: "MAIN st"}
	if !Matches(f, Report{Address: "12 main street"}) {
		t.Fatalf("expected match")
	}
	if Matches(f, Report{}) {
		t.Fatalf("empty address must not match")
	}
}

func TestMatches_EqualityUnknownValueMatchesNothing(t *testing.T) {
	f := EqualityFilter{Field: FieldStatus, Value: "archived"}
	for _, s := range []Status{StatusReceived, StatusInProgress, StatusClosed} {
		if Matches(f, Report{Status: s}) {
			t.Fatalf("unexpected match for %s", s)
		}
	}
}

func TestCompileWhere_UsesPlaceholdersAndEscapesLike(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	where, args, err := compileWhere([]Predicate{
		EqualityFilter{Field: FieldStatus, Value: "closed"},
		DateRangeFilter{From: &from},
		SubstringFilter{Term: `50%_off\`},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := `status = $1 AND created_at >= $2 AND address ILIKE $3 ESCAPE '\'`
	if where != want {
		t.Fatalf("unexpected where:\n got %s\nwant %s", where, want)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[2] != `%50\%\_off\\%` {
		t.Fatalf("unexpected like pattern %q", args[2])
	}
}

func TestCompileWhere_Proximity(t *testing.T) {
	where, args, err := compileWhere([]Predicate{ProximityFilter{Latitude: 47.4979, Longitude: 19.0402, Epsilon: 0.0005}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := "latitude IS NOT NULL AND longitude IS NOT NULL AND abs(latitude - $2::numeric) <= $1::numeric AND abs(longitude - $3::numeric) <= $1::numeric"
	if where != want {
		t.Fatalf("unexpected where:\n got %s\nwant %s", where, want)
	}
	if len(args) != 3 || args[0] != "0.000500" || args[1] != "47.497900" || args[2] != "19.040200" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestCompileWhere_RejectsUnknownField(t *testing.T) {
	if _, _, err := compileWhere([]Predicate{EqualityFilter{Field: "address", Value: "x"}}); err == nil {
		t.Fatalf("expected error")
	}
}
