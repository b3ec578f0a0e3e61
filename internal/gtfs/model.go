package gtfs

import "github.com/jackc/pgx/v5/pgtype"

// Agency is a row of agency.txt.
type Agency struct {
	ID       string
	Name     string
	URL      string
	Timezone string
	Lang     string
	Phone    string
	FareURL  string
}

// Stop is a row of stops.txt.
type Stop struct {
	ID                 string
	Code               string
	Name               string
	Desc               string
	Lat                pgtype.Float8
	Lon                pgtype.Float8
	ZoneID             string
	URL                string
	LocationType       pgtype.Int4
	ParentStation      string
	Timezone           string
	WheelchairBoarding pgtype.Int4
}

// Route is a row of routes.txt.
type Route struct {
	ID        string
	Agency    *Agency // nil when agency_id is blank or unresolved
	ShortName string
	LongName  string
	Desc      string
	Type      pgtype.Int4
	URL       string
	Color     string
	TextColor string
}

// Service is a service_id defined by calendar.txt, calendar_dates.txt or both.
type Service struct {
	ID        string
	Calendar  *Calendar // nil when only calendar_dates defines the service
	Exceptions []CalendarDate
}

// Calendar is a row of calendar.txt. Days holds monday..sunday flags.
type Calendar struct {
	Days      [7]pgtype.Int4
	StartDate pgtype.Int4 // YYYYMMDD
	EndDate   pgtype.Int4 // YYYYMMDD
}

// CalendarDate is a row of calendar_dates.txt.
type CalendarDate struct {
	Date          pgtype.Int4 // YYYYMMDD
	ExceptionType pgtype.Int4 // 1 added, 2 removed
}

// ShapePoint is a row of shapes.txt.
type ShapePoint struct {
	Lat          pgtype.Float8
	Lon          pgtype.Float8
	Sequence     pgtype.Int4
	DistTraveled pgtype.Float8
}

// Trip is a row of trips.txt.
type Trip struct {
	ID                   string
	Route                *Route
	Service              *Service
	Headsign             string
	ShortName            string
	DirectionID          pgtype.Int4
	BlockID              string
	ShapeID              string
	WheelchairAccessible pgtype.Int4
	BikesAllowed         pgtype.Int4
}

// StopTime is a row of stop_times.txt. Times are seconds since the start of
// the service day and may exceed 24h.
type StopTime struct {
	Trip          *Trip
	Stop          *Stop
	ArrivalTime   pgtype.Int4
	DepartureTime pgtype.Int4
	StopSequence  pgtype.Int4
	StopHeadsign  string
	PickupType    pgtype.Int4
	DropOffType   pgtype.Int4
	DistTraveled  pgtype.Float8
	Timepoint     pgtype.Int4
}

// Frequency is a row of frequencies.txt.
type Frequency struct {
	Trip        *Trip
	StartTime   pgtype.Int4
	EndTime     pgtype.Int4
	HeadwaySecs pgtype.Int4
	ExactTimes  pgtype.Int4
}

// Transfer is a row of transfers.txt.
type Transfer struct {
	FromStop        *Stop
	ToStop          *Stop
	TransferType    pgtype.Int4
	MinTransferTime pgtype.Int4
}

// FeedInfo is the single row of feed_info.txt.
type FeedInfo struct {
	PublisherName string
	PublisherURL  string
	Lang          string
	StartDate     pgtype.Int4
	EndDate       pgtype.Int4
	Version       string
}
