// Package feed provides the generic row-loading core for transit feed tables.
//
// A feed archive is a set of comma-separated text files named
// "<table>.txt", each with a header line. This package turns one such file at
// a time into calls of a per-row callback, and gives that callback validated
// typed access to the row's cells. It never stops at bad data: every problem
// becomes a [ValidationError] in a shared [Sink] and the scan moves on.
//
// # Tables
//
// A concrete loader describes its table with a [Table] value:
//
//	feed.Table{
//	    Name:            "stops",
//	    Required:        true,
//	    RequiredColumns: []string{"stop_id", "stop_lat", "stop_lon"},
//	    LoadRow: func(f *feed.Fields) error {
//	        stop := &Stop{ID: f.String("stop_id", true)}
//	        stop.Lat = f.Float("stop_lat", true)
//	        if stop.Lat.Valid {
//	            f.CheckRangeInclusive("stop_lat", -90, 90, stop.Lat.Float64)
//	        }
//	        stops[stop.ID] = stop
//	        return nil
//	    },
//	}
//
// # Scanning
//
// [Scanner.Scan] opens the table from any [io/fs.FS] (a zip archive, a
// directory, an in-memory map), checks required columns, and walks the rows.
// A missing optional table is skipped silently; a missing required table
// yields exactly one MissingTable error. Only I/O failures, tokenizer
// failures, cancellation and callback errors abort a table; they are
// returned as [*ScanError].
//
// # Sessions
//
// [Session] loads several tables in order into one [ErrorList] and produces
// a [Report].
//
// # Error codes
//
// Each validation kind has a support code (GTFS001-GTFS007) and a
// user-facing message; see [Describe] and [MapError].
package feed
