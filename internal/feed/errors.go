package feed

// errors.go defines the validation error taxonomy and the accumulator that
// collects errors for an entire load session.
//
// Validation errors are never returned from the scan; they are recorded in a
// Sink and the scan keeps going. Only I/O failures surface as Go errors (see
// ScanError in scanner.go).

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind classifies a validation error.
type Kind int

const (
	KindEmptyField Kind = iota + 1
	KindNumberParse
	KindTimeParse
	KindRange
	KindReferentialIntegrity
	KindMissingColumn
	KindMissingTable
)

var kindNames = map[Kind]string{
	KindEmptyField:           "empty_field",
	KindNumberParse:          "number_parse",
	KindTimeParse:            "time_parse",
	KindRange:                "range",
	KindReferentialIntegrity: "referential_integrity",
	KindMissingColumn:        "missing_column",
	KindMissingTable:         "missing_table",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindEmptyField,
		KindNumberParse,
		KindTimeParse,
		KindRange,
		KindReferentialIntegrity,
		KindMissingColumn,
		KindMissingTable,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	kind, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown error kind %q", s)
}

// TableLevel reports whether errors of this kind refer to a whole table or
// header rather than to a data row.
func (k Kind) TableLevel() bool {
	return k == KindMissingColumn || k == KindMissingTable
}

// ValidationError is a single data-quality problem found while loading.
//
// Row is the 1-based data row (header excluded) and is 0 for table-level
// errors. Value carries the raw offending text, or the unresolved key for
// referential integrity errors. Min, Max and Actual are set for range errors.
type ValidationError struct {
	Kind   Kind    `json:"kind"`
	Table  string  `json:"table"`
	Row    int64   `json:"row,omitempty"`
	Column string  `json:"column,omitempty"`
	Value  string  `json:"value,omitempty"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Actual float64 `json:"actual"`
}

// MarshalJSON writes min, max and actual for range errors only, including
// when a bound or the actual value is 0.
func (e ValidationError) MarshalJSON() ([]byte, error) {
	type plain ValidationError
	out := struct {
		plain
		Min    *float64 `json:"min,omitempty"`
		Max    *float64 `json:"max,omitempty"`
		Actual *float64 `json:"actual,omitempty"`
	}{plain: plain(e)}
	if e.Kind == KindRange {
		out.Min, out.Max, out.Actual = &e.Min, &e.Max, &e.Actual
	}
	return json.Marshal(out)
}

func (e ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Table)
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	b.WriteString(": ")

	switch e.Kind {
	case KindEmptyField:
		b.WriteString("required field is empty")
	case KindNumberParse:
		fmt.Fprintf(&b, "invalid number %q", e.Value)
	case KindTimeParse:
		fmt.Fprintf(&b, "invalid time %q (want HH:MM:SS)", e.Value)
	case KindRange:
		fmt.Fprintf(&b, "value %v out of range [%v, %v]", e.Actual, e.Min, e.Max)
	case KindReferentialIntegrity:
		fmt.Fprintf(&b, "unresolved reference %q", e.Value)
	case KindMissingColumn:
		b.WriteString("missing required column")
	case KindMissingTable:
		b.WriteString("missing required table")
	default:
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

// Is lets errors.Is match a ValidationError against the kind sentinels.
func (e ValidationError) Is(target error) bool {
	var k kindError
	if errors.As(target, &k) {
		return Kind(k) == e.Kind
	}
	return false
}

type kindError Kind

func (k kindError) Error() string { return Kind(k).String() }

// Sentinels usable with errors.Is against a ValidationError.
var (
	ErrEmptyField           error = kindError(KindEmptyField)
	ErrNumberParse          error = kindError(KindNumberParse)
	ErrTimeParse            error = kindError(KindTimeParse)
	ErrRange                error = kindError(KindRange)
	ErrReferentialIntegrity error = kindError(KindReferentialIntegrity)
	ErrMissingColumn        error = kindError(KindMissingColumn)
	ErrMissingTable         error = kindError(KindMissingTable)
)

// Sink receives validation errors. Implementations must be safe to call from
// the goroutine running the scan; ErrorList is also safe for concurrent use.
type Sink interface {
	Add(ValidationError)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ValidationError)

// Add calls f(e).
func (f SinkFunc) Add(e ValidationError) { f(e) }

// ErrorList is an append-only, mutex-guarded collection of validation errors
// shared by every table scanned in one load session.
type ErrorList struct {
	mu     sync.Mutex
	errs   []ValidationError
	counts map[Kind]int
}

// NewErrorList returns an empty list.
func NewErrorList() *ErrorList {
	return &ErrorList{counts: make(map[Kind]int)}
}

// Add appends e.
func (l *ErrorList) Add(e ValidationError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = make(map[Kind]int)
	}
	l.errs = append(l.errs, e)
	l.counts[e.Kind]++
}

// Len returns the number of recorded errors.
func (l *ErrorList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}

// Errors returns a copy of the recorded errors in insertion order.
func (l *ErrorList) Errors() []ValidationError {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ValidationError, len(l.errs))
	copy(out, l.errs)
	return out
}

// Count returns the number of errors of the given kind.
func (l *ErrorList) Count(k Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[k]
}

// CountsByKind returns a snapshot of per-kind counts.
func (l *ErrorList) CountsByKind() map[Kind]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Kind]int, len(l.counts))
	for k, n := range l.counts {
		out[k] = n
	}
	return out
}

// SortErrors orders errs by table, row, then column in place. Insertion order
// is kept for ties.
func SortErrors(errs []ValidationError) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Table != errs[j].Table {
			return errs[i].Table < errs[j].Table
		}
		if errs[i].Row != errs[j].Row {
			return errs[i].Row < errs[j].Row
		}
		return errs[i].Column < errs[j].Column
	})
}

// MarshalJSON encodes the list as a JSON array.
func (l *ErrorList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Errors())
}
