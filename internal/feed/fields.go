package feed

// fields.go provides typed field extraction for the current row.
//
// Every getter reads one named cell, validates it, records at most one
// ValidationError in the sink, and always returns a well-defined value.
// Numeric results use pgtype optional values: Valid=false means no usable
// value was produced.

import (
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// IntMissing is the legacy sentinel for "no integer value". Prefer checking
// Valid on the pgtype result; IntOrMissing converts for callers that need it.
const IntMissing = math.MinInt32

// IntOrMissing returns v's value, or IntMissing when v is invalid.
func IntOrMissing(v pgtype.Int4) int32 {
	if !v.Valid {
		return IntMissing
	}
	return v.Int32
}

// Policy controls how blank optional values are interpreted. The zero value
// reads a blank optional integer as 0.
type Policy struct {
	// BlankIntInvalid makes a blank optional integer invalid instead of a
	// valid zero.
	BlankIntInvalid bool
}

// DefaultPolicy matches the GTFS reading of blank optional integers as 0.
var DefaultPolicy = Policy{}

// Fields gives a row callback validated access to the current row.
type Fields struct {
	table  string
	row    *Row
	sink   Sink
	policy Policy
}

// NewFields creates extractors for one row of table, reporting to sink.
func NewFields(table string, row *Row, sink Sink, policy Policy) *Fields {
	return &Fields{table: table, row: row, sink: sink, policy: policy}
}

// Table returns the table name errors are reported against.
func (f *Fields) Table() string { return f.table }

// RowNum returns the 1-based number of the current data row.
func (f *Fields) RowNum() int64 { return f.row.Num }

// Row returns the current row for raw access.
func (f *Fields) Row() *Row { return f.row }

func (f *Fields) report(kind Kind, column, value string) {
	f.sink.Add(ValidationError{
		Kind:   kind,
		Table:  f.table,
		Row:    f.row.Num,
		Column: column,
		Value:  value,
	})
}

// raw returns the trimmed cell; a column missing from the header reads as blank.
func (f *Fields) raw(column string) string {
	s, _ := f.row.Get(column)
	return s
}

// String returns the cell for column. A blank required value is reported.
func (f *Fields) String(column string, required bool) string {
	s := f.raw(column)
	if required && s == "" {
		f.report(KindEmptyField, column, "")
	}
	return s
}

// Int parses column as a base-10 integer.
//
// Blank required values are reported and invalid. Blank optional values are
// zero, or invalid under Policy.BlankIntInvalid, without an error.
// Unparseable values are reported and invalid.
func (f *Fields) Int(column string, required bool) pgtype.Int4 {
	s := f.raw(column)
	if s == "" {
		if required {
			f.report(KindEmptyField, column, "")
			return pgtype.Int4{}
		}
		if f.policy.BlankIntInvalid {
			return pgtype.Int4{}
		}
		return pgtype.Int4{Int32: 0, Valid: true}
	}

	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		f.report(KindNumberParse, column, s)
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}
}

// Time parses column as HH:MM:SS and returns seconds since the start of the
// service day. Hours above 23 are accepted for trips running past midnight.
func (f *Fields) Time(column string, required bool) pgtype.Int4 {
	s := f.raw(column)
	if s == "" {
		if required {
			f.report(KindEmptyField, column, "")
		}
		return pgtype.Int4{}
	}

	secs, ok := ParseTime(s)
	if !ok {
		f.report(KindTimeParse, column, s)
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: secs, Valid: true}
}

// ParseTime converts "H:MM:SS" to seconds. It requires exactly three numeric
// segments and rejects negative components.
func ParseTime(s string) (int32, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	var vals [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil || n < 0 {
			return 0, false
		}
		vals[i] = n
	}
	total := vals[0]*3600 + vals[1]*60 + vals[2]
	if total > math.MaxInt32 {
		return 0, false
	}
	return int32(total), true
}

// Float parses column as a decimal number. Blank required values are reported
// and invalid; blank optional values are invalid without an error.
func (f *Fields) Float(column string, required bool) pgtype.Float8 {
	s := f.raw(column)
	if s == "" {
		if required {
			f.report(KindEmptyField, column, "")
		}
		return pgtype.Float8{}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		f.report(KindNumberParse, column, s)
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: v, Valid: true}
}

// CheckRangeInclusive reports whether min <= actual <= max, recording a range
// error against column when it is not.
func (f *Fields) CheckRangeInclusive(column string, min, max, actual float64) bool {
	if actual < min || actual > max {
		f.sink.Add(ValidationError{
			Kind:   KindRange,
			Table:  f.table,
			Row:    f.row.Num,
			Column: column,
			Min:    min,
			Max:    max,
			Actual: actual,
		})
		return false
	}
	return true
}

// Ref reads column as a key into target.
//
// A blank required key is reported as empty; a blank optional key resolves to
// nothing silently. A non-blank key absent from target is reported as a
// referential integrity error carrying the key. ok is true only when the key
// resolved.
func Ref[K ~string, V any](f *Fields, column string, required bool, target map[K]V) (v V, ok bool) {
	s := f.raw(column)
	if s == "" {
		if required {
			f.report(KindEmptyField, column, "")
		}
		return v, false
	}

	v, ok = target[K(s)]
	if !ok {
		f.report(KindReferentialIntegrity, column, s)
	}
	return v, ok
}
