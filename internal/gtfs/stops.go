package gtfs

import "github.com/JonMunkholm/gtfsload/internal/feed"

func init() {
	Register(TableDefinition{
		Info: TableInfo{
			Name:            "stops",
			Label:           "Stops",
			Required:        true,
			RequiredColumns: []string{"stop_id", "stop_lat", "stop_lon"},
			Order:           20,
		},
		Bind: bindStops,
	})

	Register(TableDefinition{
		Info: TableInfo{
			Name:            "transfers",
			Label:           "Transfers",
			RequiredColumns: []string{"from_stop_id", "to_stop_id", "transfer_type"},
			Order:           100,
		},
		Bind: bindTransfers,
	})
}

func bindStops(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		s := &Stop{
			ID:                 fl.String("stop_id", true),
			Code:               fl.String("stop_code", false),
			Name:               fl.String("stop_name", false),
			Desc:               fl.String("stop_desc", false),
			Lat:                fl.Float("stop_lat", true),
			Lon:                fl.Float("stop_lon", true),
			ZoneID:             fl.String("zone_id", false),
			URL:                fl.String("stop_url", false),
			LocationType:       fl.Int("location_type", false),
			ParentStation:      fl.String("parent_station", false),
			Timezone:           fl.String("stop_timezone", false),
			WheelchairBoarding: fl.Int("wheelchair_boarding", false),
		}
		checkFloat(fl, "stop_lat", s.Lat, -90, 90)
		checkFloat(fl, "stop_lon", s.Lon, -180, 180)
		checkInt(fl, "location_type", s.LocationType, 0, 4)
		checkInt(fl, "wheelchair_boarding", s.WheelchairBoarding, 0, 2)

		if s.ID != "" {
			f.Stops[s.ID] = s
		}
		return nil
	}
}

func bindTransfers(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		from, okFrom := feed.Ref(fl, "from_stop_id", true, f.Stops)
		to, okTo := feed.Ref(fl, "to_stop_id", true, f.Stops)
		t := &Transfer{
			FromStop:        from,
			ToStop:          to,
			TransferType:    fl.Int("transfer_type", true),
			MinTransferTime: fl.Int("min_transfer_time", false),
		}
		checkInt(fl, "transfer_type", t.TransferType, 0, 3)
		checkInt(fl, "min_transfer_time", t.MinTransferTime, 0, 86400)

		if okFrom && okTo {
			f.Transfers = append(f.Transfers, t)
		}
		return nil
	}
}
