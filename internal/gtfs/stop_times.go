package gtfs

import "github.com/JonMunkholm/gtfsload/internal/feed"

func init() {
	Register(TableDefinition{
		Info: TableInfo{
			Name:            "stop_times",
			Label:           "Stop Times",
			Required:        true,
			RequiredColumns: []string{"trip_id", "stop_id", "stop_sequence"},
			Order:           80,
		},
		Bind: bindStopTimes,
	})
}

// bindStopTimes loads stop_times.txt. Arrival and departure are optional per
// row since only timepoints must carry them.
func bindStopTimes(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		trip, okTrip := feed.Ref(fl, "trip_id", true, f.Trips)
		stop, okStop := feed.Ref(fl, "stop_id", true, f.Stops)

		st := &StopTime{
			Trip:          trip,
			Stop:          stop,
			ArrivalTime:   fl.Time("arrival_time", false),
			DepartureTime: fl.Time("departure_time", false),
			StopSequence:  fl.Int("stop_sequence", true),
			StopHeadsign:  fl.String("stop_headsign", false),
			PickupType:    fl.Int("pickup_type", false),
			DropOffType:   fl.Int("drop_off_type", false),
			DistTraveled:  fl.Float("shape_dist_traveled", false),
			Timepoint:     fl.Int("timepoint", false),
		}
		checkInt(fl, "pickup_type", st.PickupType, 0, 3)
		checkInt(fl, "drop_off_type", st.DropOffType, 0, 3)
		checkInt(fl, "timepoint", st.Timepoint, 0, 1)

		if okTrip && okStop {
			f.StopTimes = append(f.StopTimes, st)
		}
		return nil
	}
}
