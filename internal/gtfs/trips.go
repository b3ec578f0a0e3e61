package gtfs

import "github.com/JonMunkholm/gtfsload/internal/feed"

func init() {
	Register(TableDefinition{
		Info: TableInfo{
			Name:            "shapes",
			Label:           "Shapes",
			RequiredColumns: []string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence"},
			Order:           60,
		},
		Bind: bindShapes,
	})

	Register(TableDefinition{
		Info: TableInfo{
			Name:            "trips",
			Label:           "Trips",
			Required:        true,
			RequiredColumns: []string{"route_id", "service_id", "trip_id"},
			Order:           70,
		},
		Bind: bindTrips,
	})

	Register(TableDefinition{
		Info: TableInfo{
			Name:            "frequencies",
			Label:           "Frequencies",
			RequiredColumns: []string{"trip_id", "start_time", "end_time", "headway_secs"},
			Order:           90,
		},
		Bind: bindFrequencies,
	})
}

func bindShapes(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		id := fl.String("shape_id", true)
		p := ShapePoint{
			Lat:          fl.Float("shape_pt_lat", true),
			Lon:          fl.Float("shape_pt_lon", true),
			Sequence:     fl.Int("shape_pt_sequence", true),
			DistTraveled: fl.Float("shape_dist_traveled", false),
		}
		checkFloat(fl, "shape_pt_lat", p.Lat, -90, 90)
		checkFloat(fl, "shape_pt_lon", p.Lon, -180, 180)

		if id != "" {
			f.Shapes[id] = append(f.Shapes[id], p)
		}
		return nil
	}
}

func bindTrips(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		route, okRoute := feed.Ref(fl, "route_id", true, f.Routes)
		svc, okSvc := feed.Ref(fl, "service_id", true, f.Services)

		t := &Trip{
			ID:                   fl.String("trip_id", true),
			Route:                route,
			Service:              svc,
			Headsign:             fl.String("trip_headsign", false),
			ShortName:            fl.String("trip_short_name", false),
			DirectionID:          fl.Int("direction_id", false),
			BlockID:              fl.String("block_id", false),
			WheelchairAccessible: fl.Int("wheelchair_accessible", false),
			BikesAllowed:         fl.Int("bikes_allowed", false),
		}
		if _, ok := feed.Ref(fl, "shape_id", false, f.Shapes); ok {
			t.ShapeID = fl.String("shape_id", false)
		}
		checkInt(fl, "direction_id", t.DirectionID, 0, 1)
		checkInt(fl, "wheelchair_accessible", t.WheelchairAccessible, 0, 2)
		checkInt(fl, "bikes_allowed", t.BikesAllowed, 0, 2)

		if t.ID != "" && okRoute && okSvc {
			f.Trips[t.ID] = t
		}
		return nil
	}
}

func bindFrequencies(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		trip, ok := feed.Ref(fl, "trip_id", true, f.Trips)
		fr := &Frequency{
			Trip:        trip,
			StartTime:   fl.Time("start_time", true),
			EndTime:     fl.Time("end_time", true),
			HeadwaySecs: fl.Int("headway_secs", true),
			ExactTimes:  fl.Int("exact_times", false),
		}
		checkInt(fl, "headway_secs", fr.HeadwaySecs, 1, 86400)
		checkInt(fl, "exact_times", fr.ExactTimes, 0, 1)

		if ok {
			f.Frequencies = append(f.Frequencies, fr)
		}
		return nil
	}
}
