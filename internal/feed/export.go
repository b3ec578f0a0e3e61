package feed

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{"code", "kind", "table", "row", "column", "value", "message"}

// WriteCSV writes errs as CSV, one error per row, with CSVHeader first.
func WriteCSV(w io.Writer, errs []ValidationError) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range errs {
		row := ""
		if e.Row > 0 {
			row = strconv.FormatInt(e.Row, 10)
		}
		if err := cw.Write([]string{
			Describe(e.Kind).Code,
			e.Kind.String(),
			e.Table,
			row,
			e.Column,
			e.Value,
			e.Error(),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
