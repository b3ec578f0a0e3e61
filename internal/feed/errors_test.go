package feed

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{
			name: "empty field",
			err:  ValidationError{Kind: KindEmptyField, Table: "stops", Row: 2, Column: "stop_id"},
			want: "stops row 2 column stop_id: required field is empty",
		},
		{
			name: "reference",
			err:  ValidationError{Kind: KindReferentialIntegrity, Table: "trips", Row: 9, Column: "route_id", Value: "R9"},
			want: `trips row 9 column route_id: unresolved reference "R9"`,
		},
		{
			name: "missing table",
			err:  ValidationError{Kind: KindMissingTable, Table: "agency"},
			want: "agency: missing required table",
		},
		{
			name: "range",
			err:  ValidationError{Kind: KindRange, Table: "stops", Row: 1, Column: "stop_lat", Min: -90, Max: 90, Actual: 91},
			want: "stops row 1 column stop_lat: value 91 out of range [-90, 90]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	var err error = ValidationError{Kind: KindTimeParse, Table: "stop_times"}
	if !errors.Is(err, ErrTimeParse) {
		t.Error("errors.Is(err, ErrTimeParse) = false")
	}
	if errors.Is(err, ErrRange) {
		t.Error("errors.Is(err, ErrRange) = true")
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", k, err)
		}
		var back Kind
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", b, err)
		}
		if back != k {
			t.Errorf("round trip %v -> %q -> %v", k, b, back)
		}
	}
	if _, err := ParseKind("bogus"); err == nil {
		t.Error("ParseKind(bogus) error = nil")
	}
}

func TestValidationError_JSON(t *testing.T) {
	b, err := json.Marshal(ValidationError{Kind: KindMissingColumn, Table: "routes", Column: "route_id"})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	got := string(b)
	if !strings.Contains(got, `"kind":"missing_column"`) {
		t.Errorf("json = %s, want kind by name", got)
	}
	if strings.Contains(got, `"row"`) {
		t.Errorf("json = %s, want row omitted for table-level error", got)
	}
}

func TestValidationError_JSONRangeKeepsZero(t *testing.T) {
	tests := []struct {
		name   string
		min    float64
		max    float64
		actual float64
		want   string
	}{
		{"zero lower bound", 0, 100, 150, `"min":0,"max":100,"actual":150`},
		{"zero actual", 1, 86400, 0, `"min":1,"max":86400,"actual":0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, errs := newTestFields([]string{"x"}, []string{"1"}, DefaultPolicy)
			if f.CheckRangeInclusive("x", tt.min, tt.max, tt.actual) {
				t.Fatal("CheckRangeInclusive() = true, want false")
			}
			b, err := json.Marshal(errs.Errors()[0])
			if err != nil {
				t.Fatalf("Marshal error = %v", err)
			}
			if !strings.Contains(string(b), tt.want) {
				t.Errorf("json = %s, want it to contain %s", b, tt.want)
			}

			var back ValidationError
			if err := json.Unmarshal(b, &back); err != nil {
				t.Fatalf("Unmarshal error = %v", err)
			}
			if back != errs.Errors()[0] {
				t.Errorf("decoded = %+v, want %+v", back, errs.Errors()[0])
			}
		})
	}

	b, err := json.Marshal(ValidationError{Kind: KindEmptyField, Table: "stops", Row: 2, Column: "stop_id"})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if strings.Contains(string(b), `"min"`) || strings.Contains(string(b), `"actual"`) {
		t.Errorf("json = %s, want range fields omitted for non-range error", b)
	}
}

func TestErrorList_Concurrent(t *testing.T) {
	list := NewErrorList()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				list.Add(ValidationError{Kind: KindRange, Table: "t"})
			}
		}()
	}
	wg.Wait()

	if list.Len() != 800 {
		t.Errorf("Len() = %d, want 800", list.Len())
	}
	if list.Count(KindRange) != 800 {
		t.Errorf("Count(KindRange) = %d, want 800", list.Count(KindRange))
	}
}

func TestSortErrors(t *testing.T) {
	errs := []ValidationError{
		{Kind: KindEmptyField, Table: "trips", Row: 3},
		{Kind: KindEmptyField, Table: "stops", Row: 5, Column: "stop_lat"},
		{Kind: KindRange, Table: "stops", Row: 5, Column: "stop_lat"},
		{Kind: KindMissingColumn, Table: "stops"},
	}
	SortErrors(errs)

	if errs[0].Table != "stops" || errs[0].Row != 0 || errs[3].Table != "trips" {
		t.Errorf("SortErrors() = %+v", errs)
	}
	// Ties keep insertion order.
	if errs[1].Kind != KindEmptyField || errs[2].Kind != KindRange {
		t.Errorf("tie order = %v, %v, want empty_field, range", errs[1].Kind, errs[2].Kind)
	}
}

func TestMultiSink(t *testing.T) {
	var extra []ValidationError
	sess := NewSession("feed", quietOptions(), SinkFunc(func(e ValidationError) {
		extra = append(extra, e)
	}))
	sess.Sink().Add(ValidationError{Kind: KindRange, Table: "x"})

	if sess.Errors.Len() != 1 || len(extra) != 1 {
		t.Errorf("session=%d extra=%d, want 1 and 1", sess.Errors.Len(), len(extra))
	}
}
