package gtfs

import "github.com/JonMunkholm/gtfsload/internal/feed"

// Extended route types run to 1702; the basic set is 0-7, 11 and 12.
const maxRouteType = 1702

func init() {
	Register(TableDefinition{
		Info: TableInfo{
			Name:            "routes",
			Label:           "Routes",
			Required:        true,
			RequiredColumns: []string{"route_id", "route_type"},
			Order:           30,
		},
		Bind: bindRoutes,
	})
}

func bindRoutes(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		r := &Route{
			ID:        fl.String("route_id", true),
			ShortName: fl.String("route_short_name", false),
			LongName:  fl.String("route_long_name", false),
			Desc:      fl.String("route_desc", false),
			Type:      fl.Int("route_type", true),
			URL:       fl.String("route_url", false),
			Color:     fl.String("route_color", false),
			TextColor: fl.String("route_text_color", false),
		}
		checkInt(fl, "route_type", r.Type, 0, maxRouteType)

		if agency, ok := feed.Ref(fl, "agency_id", false, f.Agencies); ok {
			r.Agency = agency
		} else if len(f.Agencies) == 1 && emptyCell(fl, "agency_id") {
			// agency_id may be omitted when the feed has one agency.
			for _, a := range f.Agencies {
				r.Agency = a
			}
		}

		if r.ID != "" {
			f.Routes[r.ID] = r
		}
		return nil
	}
}

func emptyCell(fl *feed.Fields, column string) bool {
	s, _ := fl.Row().Get(column)
	return s == ""
}
