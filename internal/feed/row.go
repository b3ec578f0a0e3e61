package feed

import (
	"sort"
	"strings"
)

// HeaderIndex maps column names to their position in a record.
// Names are stored trimmed; lookups are exact because feed column names are
// case-sensitive snake_case.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header record. When a name
// repeats, the first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.TrimSpace(h)
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

// Has reports whether column is present in the header.
func (h HeaderIndex) Has(column string) bool {
	_, ok := h[column]
	return ok
}

// Columns returns the header names ordered by position.
func (h HeaderIndex) Columns() []string {
	out := make([]string, 0, len(h))
	for name := range h {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return h[out[i]] < h[out[j]] })
	return out
}

// Row is the current data record of a scan. Num is 1-based over data rows
// only. A Row is reused between records and must not be retained.
type Row struct {
	Num    int64
	header HeaderIndex
	record []string
}

// NewRow builds a Row for use outside a Scanner, mainly in loader tests.
func NewRow(num int64, header HeaderIndex, record []string) *Row {
	return &Row{Num: num, header: header, record: record}
}

// Get returns the trimmed cell for column. ok is false when the column is not
// in the header or the record is too short to contain it.
func (r *Row) Get(column string) (string, bool) {
	pos, ok := r.header[column]
	if !ok || pos >= len(r.record) {
		return "", false
	}
	return strings.TrimSpace(r.record[pos]), true
}

// Header returns the header index shared by every row of the table.
func (r *Row) Header() HeaderIndex {
	return r.header
}
