package feed

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

// newTestFields builds Fields over a single row with the given header/values.
func newTestFields(header, record []string, policy Policy) (*Fields, *ErrorList) {
	errs := NewErrorList()
	row := NewRow(1, MakeHeaderIndex(header), record)
	return NewFields("test", row, errs, policy), errs
}

func TestFields_String(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		required bool
		want     string
		wantErrs int
	}{
		{"present required", "abc", true, "abc", 0},
		{"trimmed", "  abc ", true, "abc", 0},
		{"blank required", "", true, "", 1},
		{"blank optional", "", false, "", 0},
		// Whitespace-only cells count as blank.
		{"whitespace required", "   ", true, "", 1},
		{"whitespace optional", "\t ", false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, errs := newTestFields([]string{"col"}, []string{tt.value}, DefaultPolicy)
			got := f.String("col", tt.required)
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if errs.Len() != tt.wantErrs {
				t.Errorf("errors = %d, want %d", errs.Len(), tt.wantErrs)
			}
			if tt.wantErrs > 0 && errs.Count(KindEmptyField) != 1 {
				t.Errorf("EmptyField count = %d, want 1", errs.Count(KindEmptyField))
			}
		})
	}
}

func TestRef_WhitespaceKeyIsTrimmed(t *testing.T) {
	target := map[string]int{"stop_1": 7}

	f, errs := newTestFields([]string{"stop_id"}, []string{" stop_1 "}, DefaultPolicy)
	if got, ok := Ref(f, "stop_id", true, target); !ok || got != 7 {
		t.Errorf("Ref() = %d, %v, want 7, true", got, ok)
	}

	f, errs = newTestFields([]string{"stop_id"}, []string{"  "}, DefaultPolicy)
	if _, ok := Ref(f, "stop_id", true, target); ok {
		t.Error("Ref() resolved a whitespace-only key")
	}
	if errs.Len() != 1 || errs.Count(KindEmptyField) != 1 {
		t.Errorf("errors = %+v, want one EmptyField", errs.Errors())
	}
}

func TestFields_StringMissingColumn(t *testing.T) {
	f, errs := newTestFields([]string{"other"}, []string{"x"}, DefaultPolicy)
	if got := f.String("col", true); got != "" {
		t.Errorf("String() = %q, want empty", got)
	}
	if errs.Count(KindEmptyField) != 1 {
		t.Errorf("EmptyField count = %d, want 1", errs.Count(KindEmptyField))
	}
}

func TestFields_Int(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		required bool
		policy   Policy
		want     pgtype.Int4
		wantKind Kind
	}{
		{"valid", "42", true, DefaultPolicy, pgtype.Int4{Int32: 42, Valid: true}, 0},
		{"negative", "-7", false, DefaultPolicy, pgtype.Int4{Int32: -7, Valid: true}, 0},
		{"blank required", "", true, DefaultPolicy, pgtype.Int4{}, KindEmptyField},
		{"blank optional zero policy", "", false, DefaultPolicy, pgtype.Int4{Int32: 0, Valid: true}, 0},
		{"blank optional invalid policy", "", false, Policy{BlankIntInvalid: true}, pgtype.Int4{}, 0},
		{"unparseable", "12a", true, DefaultPolicy, pgtype.Int4{}, KindNumberParse},
		{"decimal", "1.5", false, DefaultPolicy, pgtype.Int4{}, KindNumberParse},
		{"overflow", "99999999999", false, DefaultPolicy, pgtype.Int4{}, KindNumberParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, errs := newTestFields([]string{"n"}, []string{tt.value}, tt.policy)
			got := f.Int("n", tt.required)
			if got != tt.want {
				t.Errorf("Int() = %+v, want %+v", got, tt.want)
			}
			wantErrs := 0
			if tt.wantKind != 0 {
				wantErrs = 1
			}
			if errs.Len() != wantErrs {
				t.Fatalf("errors = %d, want %d", errs.Len(), wantErrs)
			}
			if wantErrs == 1 && errs.Errors()[0].Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", errs.Errors()[0].Kind, tt.wantKind)
			}
		})
	}
}

func TestFields_IntRequiredBlankIsMissing(t *testing.T) {
	f, errs := newTestFields([]string{"n"}, []string{""}, DefaultPolicy)
	got := f.Int("n", true)
	if IntOrMissing(got) != IntMissing {
		t.Errorf("IntOrMissing() = %d, want IntMissing", IntOrMissing(got))
	}
	if errs.Len() != 1 || errs.Count(KindEmptyField) != 1 {
		t.Errorf("errors = %v, want one EmptyField", errs.Errors())
	}
}

func TestFields_Time(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		required bool
		want     pgtype.Int4
		wantKind Kind
	}{
		{"morning", "08:15:30", true, pgtype.Int4{Int32: 29730, Valid: true}, 0},
		{"single digit hour", "7:00:00", true, pgtype.Int4{Int32: 25200, Valid: true}, 0},
		{"past midnight", "25:30:00", true, pgtype.Int4{Int32: 91800, Valid: true}, 0},
		{"two segments", "1:2", true, pgtype.Int4{}, KindTimeParse},
		{"four segments", "1:2:3:4", true, pgtype.Int4{}, KindTimeParse},
		{"non numeric", "aa:00:00", true, pgtype.Int4{}, KindTimeParse},
		{"negative", "-1:00:00", true, pgtype.Int4{}, KindTimeParse},
		{"blank required", "", true, pgtype.Int4{}, KindEmptyField},
		{"blank optional", "", false, pgtype.Int4{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, errs := newTestFields([]string{"arrival_time"}, []string{tt.value}, DefaultPolicy)
			got := f.Time("arrival_time", tt.required)
			if got != tt.want {
				t.Errorf("Time() = %+v, want %+v", got, tt.want)
			}
			wantErrs := 0
			if tt.wantKind != 0 {
				wantErrs = 1
			}
			if errs.Len() != wantErrs {
				t.Fatalf("errors = %d, want %d", errs.Len(), wantErrs)
			}
			if wantErrs == 1 {
				e := errs.Errors()[0]
				if e.Kind != tt.wantKind {
					t.Errorf("kind = %v, want %v", e.Kind, tt.wantKind)
				}
				if e.Column != "arrival_time" || e.Row != 1 || e.Table != "test" {
					t.Errorf("location = %s/%d/%s, want test/1/arrival_time", e.Table, e.Row, e.Column)
				}
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"00:00:00", 0},
		{"08:15:30", 29730},
		{"25:30:00", 91800},
	}
	for _, tt := range tests {
		if got, ok := ParseTime(tt.in); !ok || got != tt.want {
			t.Errorf("ParseTime(%q) = %d, %v, want %d", tt.in, got, ok, tt.want)
		}
	}
}

func TestFields_Float(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		required bool
		want     pgtype.Float8
		wantKind Kind
	}{
		{"valid", "47.6062", true, pgtype.Float8{Float64: 47.6062, Valid: true}, 0},
		{"negative", "-122.33", true, pgtype.Float8{Float64: -122.33, Valid: true}, 0},
		{"blank required", "", true, pgtype.Float8{}, KindEmptyField},
		{"blank optional", "", false, pgtype.Float8{}, 0},
		{"unparseable", "north", true, pgtype.Float8{}, KindNumberParse},
		{"nan rejected", "NaN", false, pgtype.Float8{}, KindNumberParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, errs := newTestFields([]string{"stop_lat"}, []string{tt.value}, DefaultPolicy)
			got := f.Float("stop_lat", tt.required)
			if got != tt.want {
				t.Errorf("Float() = %+v, want %+v", got, tt.want)
			}
			wantErrs := 0
			if tt.wantKind != 0 {
				wantErrs = 1
			}
			if errs.Len() != wantErrs {
				t.Fatalf("errors = %d, want %d", errs.Len(), wantErrs)
			}
			if wantErrs == 1 && errs.Errors()[0].Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", errs.Errors()[0].Kind, tt.wantKind)
			}
		})
	}
}

func TestFields_CheckRangeInclusive(t *testing.T) {
	tests := []struct {
		name   string
		actual float64
		want   bool
	}{
		{"inside", 50, true},
		{"lower bound", 0, true},
		{"upper bound", 100, true},
		{"above", 150, false},
		{"below", -0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, errs := newTestFields([]string{"x"}, []string{""}, DefaultPolicy)
			got := f.CheckRangeInclusive("x", 0, 100, tt.actual)
			if got != tt.want {
				t.Errorf("CheckRangeInclusive() = %v, want %v", got, tt.want)
			}
			if tt.want {
				if errs.Len() != 0 {
					t.Errorf("errors = %d, want 0", errs.Len())
				}
				return
			}
			if errs.Len() != 1 {
				t.Fatalf("errors = %d, want 1", errs.Len())
			}
			e := errs.Errors()[0]
			if e.Kind != KindRange || e.Min != 0 || e.Max != 100 || e.Actual != tt.actual {
				t.Errorf("error = %+v, want range [0,100] actual %v", e, tt.actual)
			}
		})
	}
}

func TestRef(t *testing.T) {
	type stop struct{ name string }
	x := &stop{name: "X"}
	target := map[string]*stop{"stop_1": x}

	t.Run("resolved", func(t *testing.T) {
		f, errs := newTestFields([]string{"stop_id"}, []string{"stop_1"}, DefaultPolicy)
		got, ok := Ref(f, "stop_id", true, target)
		if !ok || got != x {
			t.Errorf("Ref() = %v, %v, want X, true", got, ok)
		}
		if errs.Len() != 0 {
			t.Errorf("errors = %d, want 0", errs.Len())
		}
	})

	t.Run("unresolved", func(t *testing.T) {
		f, errs := newTestFields([]string{"stop_id"}, []string{"stop_9"}, DefaultPolicy)
		got, ok := Ref(f, "stop_id", true, target)
		if ok || got != nil {
			t.Errorf("Ref() = %v, %v, want nil, false", got, ok)
		}
		if errs.Len() != 1 {
			t.Fatalf("errors = %d, want 1", errs.Len())
		}
		e := errs.Errors()[0]
		if e.Kind != KindReferentialIntegrity || e.Value != "stop_9" {
			t.Errorf("error = %+v, want referential integrity for stop_9", e)
		}
		if !errors.Is(e, ErrReferentialIntegrity) {
			t.Errorf("errors.Is(e, ErrReferentialIntegrity) = false")
		}
	})

	t.Run("blank required", func(t *testing.T) {
		f, errs := newTestFields([]string{"stop_id"}, []string{""}, DefaultPolicy)
		_, ok := Ref(f, "stop_id", true, target)
		if ok {
			t.Error("Ref() resolved a blank key")
		}
		if errs.Len() != 1 || errs.Count(KindEmptyField) != 1 {
			t.Errorf("errors = %v, want one EmptyField", errs.Errors())
		}
	})

	t.Run("blank optional", func(t *testing.T) {
		f, errs := newTestFields([]string{"stop_id"}, []string{""}, DefaultPolicy)
		_, ok := Ref(f, "stop_id", false, target)
		if ok {
			t.Error("Ref() resolved a blank key")
		}
		if errs.Len() != 0 {
			t.Errorf("errors = %d, want 0", errs.Len())
		}
	})

	t.Run("typed keys", func(t *testing.T) {
		type routeID string
		routes := map[routeID]int{"r1": 7}
		f, errs := newTestFields([]string{"route_id"}, []string{"r1"}, DefaultPolicy)
		got, ok := Ref(f, "route_id", true, routes)
		if !ok || got != 7 || errs.Len() != 0 {
			t.Errorf("Ref() = %v, %v (errors %d), want 7, true", got, ok, errs.Len())
		}
	})
}

func TestCheckRequiredColumns(t *testing.T) {
	errs := NewErrorList()
	header := MakeHeaderIndex([]string{"id", "lat"})

	missing := CheckRequiredColumns(errs, "stops", header, []string{"id", "name", "lon"})
	if !missing {
		t.Error("CheckRequiredColumns() = false, want true")
	}
	if errs.Count(KindMissingColumn) != 2 {
		t.Fatalf("MissingColumn count = %d, want 2", errs.Count(KindMissingColumn))
	}
	got := errs.Errors()
	if got[0].Column != "name" || got[1].Column != "lon" {
		t.Errorf("columns = %q, %q, want name, lon", got[0].Column, got[1].Column)
	}
	for _, e := range got {
		if e.Row != 0 {
			t.Errorf("row = %d, want 0 for header-level error", e.Row)
		}
	}

	errs = NewErrorList()
	if CheckRequiredColumns(errs, "stops", header, []string{"id"}) {
		t.Error("CheckRequiredColumns() = true with all columns present")
	}
	if errs.Len() != 0 {
		t.Errorf("errors = %d, want 0", errs.Len())
	}
}
