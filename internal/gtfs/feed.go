package gtfs

import (
	"context"
	"io/fs"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/gtfsload/internal/feed"
)

// Feed holds the entities of one loaded GTFS feed. Rows that fail required
// checks are dropped; rows with only optional problems are kept with the
// affected fields left invalid.
type Feed struct {
	ID          string
	Agencies    map[string]*Agency // keyed by agency_id, "" for a feed's single unnamed agency
	Stops       map[string]*Stop
	Routes      map[string]*Route
	Services    map[string]*Service
	Shapes      map[string][]ShapePoint
	Trips       map[string]*Trip
	StopTimes   []*StopTime
	Frequencies []*Frequency
	Transfers   []*Transfer
	Info        *FeedInfo
}

// New returns an empty feed.
func New(id string) *Feed {
	return &Feed{
		ID:       id,
		Agencies: make(map[string]*Agency),
		Stops:    make(map[string]*Stop),
		Routes:   make(map[string]*Route),
		Services: make(map[string]*Service),
		Shapes:   make(map[string][]ShapePoint),
		Trips:    make(map[string]*Trip),
	}
}

// Tables returns every registered table bound to f, in load order.
func (f *Feed) Tables() []feed.Table {
	defs := All()
	tables := make([]feed.Table, 0, len(defs))
	for _, d := range defs {
		tables = append(tables, feed.Table{
			Name:            d.Info.Name,
			Required:        d.Info.Required,
			RequiredColumns: d.Info.RequiredColumns,
			LoadRow:         d.Bind(f),
		})
	}
	return tables
}

// Load reads every table from fsys into f. Validation errors are collected in
// the returned report and also sent to any extra sinks; the error return is
// reserved for fatal failures, in which case the partial report is returned
// alongside it.
func (f *Feed) Load(ctx context.Context, fsys fs.FS, opts feed.Options, extra ...feed.Sink) (*feed.Report, error) {
	sess := feed.NewSession(f.ID, opts, extra...)
	return sess.Run(ctx, fsys, f.Tables()...)
}

// service returns the service for id, creating it on first use.
func (f *Feed) service(id string) *Service {
	s, ok := f.Services[id]
	if !ok {
		s = &Service{ID: id}
		f.Services[id] = s
	}
	return s
}

// Range helpers only check values that parsed; blank or broken cells have
// already been reported.

func checkInt(fl *feed.Fields, column string, v pgtype.Int4, min, max int32) {
	if v.Valid {
		fl.CheckRangeInclusive(column, float64(min), float64(max), float64(v.Int32))
	}
}

func checkFloat(fl *feed.Fields, column string, v pgtype.Float8, min, max float64) {
	if v.Valid {
		fl.CheckRangeInclusive(column, min, max, v.Float64)
	}
}

// Date bounds for YYYYMMDD integers.
const (
	minDate = 19000101
	maxDate = 21991231
)
