package feed

import (
	"context"
	"errors"
	"testing"
)

func TestSession_Run(t *testing.T) {
	fsys := mapFS(map[string]string{
		"agency.txt": "agency_id,agency_name\nA,Metro\n",
		"routes.txt": "route_id,agency_id\nR1,A\nR2,B\n",
	})

	agencies := map[string]bool{}
	tables := []Table{
		{
			Name:            "agency",
			Required:        true,
			RequiredColumns: []string{"agency_name"},
			LoadRow: func(f *Fields) error {
				agencies[f.String("agency_id", false)] = true
				return nil
			},
		},
		{
			Name:     "routes",
			Required: true,
			LoadRow: func(f *Fields) error {
				Ref(f, "agency_id", false, agencies)
				return nil
			},
		},
		{Name: "calendar_dates"},
		{Name: "trips", Required: true},
	}

	sess := NewSession("metro", quietOptions())
	report, err := sess.Run(context.Background(), fsys, tables...)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(report.Tables) != 4 {
		t.Fatalf("tables = %d, want 4", len(report.Tables))
	}
	if report.Rows() != 3 {
		t.Errorf("Rows() = %d, want 3", report.Rows())
	}
	if report.Counts["referential_integrity"] != 1 || report.Counts["missing_table"] != 1 {
		t.Errorf("Counts = %v", report.Counts)
	}
	if report.Valid() {
		t.Error("Valid() = true with errors present")
	}
	if res, ok := report.Table("calendar_dates"); !ok || res.State != StateSkippedOptional {
		t.Errorf("calendar_dates = %+v, want skipped", res)
	}
	if report.RunID != sess.RunID || report.FeedID != "metro" {
		t.Errorf("report ids = %v/%s", report.RunID, report.FeedID)
	}
}

func TestSession_StopsAtFatalError(t *testing.T) {
	fsys := mapFS(map[string]string{
		"agency.txt": "agency_id\nA\n",
		"stops.txt":  "stop_id\nS\n",
	})
	boom := errors.New("boom")

	sess := NewSession("f", quietOptions())
	report, err := sess.Run(context.Background(), fsys,
		Table{Name: "agency", LoadRow: func(*Fields) error { return boom }},
		Table{Name: "stops"},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if len(report.Tables) != 1 {
		t.Errorf("tables = %d, want 1 (stops must not be scanned)", len(report.Tables))
	}
	if report.Failure == "" {
		t.Error("Failure is empty")
	}
}
