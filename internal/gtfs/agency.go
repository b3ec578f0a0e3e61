package gtfs

import "github.com/JonMunkholm/gtfsload/internal/feed"

func init() {
	Register(TableDefinition{
		Info: TableInfo{
			Name:            "agency",
			Label:           "Agencies",
			Required:        true,
			RequiredColumns: []string{"agency_name", "agency_url", "agency_timezone"},
			Order:           10,
		},
		Bind: func(f *Feed) feed.RowFunc {
			return func(fl *feed.Fields) error {
				a := &Agency{
					ID:       fl.String("agency_id", false),
					Name:     fl.String("agency_name", true),
					URL:      fl.String("agency_url", true),
					Timezone: fl.String("agency_timezone", true),
					Lang:     fl.String("agency_lang", false),
					Phone:    fl.String("agency_phone", false),
					FareURL:  fl.String("agency_fare_url", false),
				}
				f.Agencies[a.ID] = a
				return nil
			}
		},
	})

	Register(TableDefinition{
		Info: TableInfo{
			Name:            "feed_info",
			Label:           "Feed Info",
			RequiredColumns: []string{"feed_publisher_name", "feed_publisher_url", "feed_lang"},
			Order:           110,
		},
		Bind: func(f *Feed) feed.RowFunc {
			return func(fl *feed.Fields) error {
				info := &FeedInfo{
					PublisherName: fl.String("feed_publisher_name", true),
					PublisherURL:  fl.String("feed_publisher_url", true),
					Lang:          fl.String("feed_lang", true),
					StartDate:     fl.Int("feed_start_date", false),
					EndDate:       fl.Int("feed_end_date", false),
					Version:       fl.String("feed_version", false),
				}
				if info.StartDate.Valid && info.StartDate.Int32 != 0 {
					checkInt(fl, "feed_start_date", info.StartDate, minDate, maxDate)
				}
				if info.EndDate.Valid && info.EndDate.Int32 != 0 {
					checkInt(fl, "feed_end_date", info.EndDate, minDate, maxDate)
				}
				f.Info = info
				return nil
			}
		},
	})
}
