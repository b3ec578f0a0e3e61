// Package gtfstest provides small GTFS feeds for tests.
package gtfstest

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"testing"
	"testing/fstest"
)

// ValidFiles is a small feed that loads without errors. Every call returns a
// fresh map so tests may edit it.
func ValidFiles() map[string]string {
	return map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"MT,Metro Transit,https://metro.example,America/Chicago\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon,location_type\n" +
			"S1,Main St,44.97,-93.26,0\n" +
			"S2,Oak Ave,44.98,-93.27,\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_type\n" +
			"R1,MT,1,3\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WK,1,1,1,1,1,0,0,20260101,20261231\n",
		"calendar_dates.txt": "service_id,date,exception_type\n" +
			"WK,20260704,2\n" +
			"HOL,20261225,1\n",
		"trips.txt": "route_id,service_id,trip_id,direction_id\n" +
			"R1,WK,T1,0\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,08:00:00,08:00:00,S1,1\n" +
			"T1,,,S2,2\n" +
			"T1,25:10:00,25:10:00,S1,3\n",
		"frequencies.txt": "trip_id,start_time,end_time,headway_secs,exact_times\n" +
			"T1,06:00:00,09:00:00,600,1\n",
		"transfers.txt": "from_stop_id,to_stop_id,transfer_type,min_transfer_time\n" +
			"S1,S2,2,120\n",
	}
}

// InvalidFiles is ValidFiles with one out-of-range latitude and one
// unresolved route reference.
func InvalidFiles() map[string]string {
	files := ValidFiles()
	files["stops.txt"] = "stop_id,stop_name,stop_lat,stop_lon\n" +
		"S1,Main St,91,-93.26\n" +
		"S2,Oak Ave,44.98,-93.27\n"
	files["trips.txt"] = "route_id,service_id,trip_id\n" +
		"R1,WK,T1\n" +
		"R9,WK,T2\n"
	return files
}

// MapFS wraps files as an fs.FS.
func MapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

// Zip packs files into a zip archive.
func Zip(t testing.TB, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := io.WriteString(w, files[name]); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
