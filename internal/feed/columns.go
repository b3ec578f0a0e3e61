package feed

// CheckRequiredColumns records one MissingColumn error for every required
// column absent from header and reports whether any were missing. All
// columns are checked; it never stops at the first absence.
func CheckRequiredColumns(sink Sink, table string, header HeaderIndex, required []string) bool {
	missing := false
	for _, column := range required {
		if header.Has(column) {
			continue
		}
		sink.Add(ValidationError{
			Kind:   KindMissingColumn,
			Table:  table,
			Column: column,
		})
		missing = true
	}
	return missing
}
