package gtfs

import "github.com/JonMunkholm/gtfsload/internal/feed"

var weekdays = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func init() {
	calendarColumns := append([]string{"service_id"}, weekdays[:]...)
	calendarColumns = append(calendarColumns, "start_date", "end_date")

	Register(TableDefinition{
		Info: TableInfo{
			Name:            "calendar",
			Label:           "Calendar",
			RequiredColumns: calendarColumns,
			Order:           40,
		},
		Bind: bindCalendar,
	})

	Register(TableDefinition{
		Info: TableInfo{
			Name:            "calendar_dates",
			Label:           "Calendar Dates",
			RequiredColumns: []string{"service_id", "date", "exception_type"},
			Order:           50,
		},
		Bind: bindCalendarDates,
	})
}

func bindCalendar(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		id := fl.String("service_id", true)

		c := &Calendar{
			StartDate: fl.Int("start_date", true),
			EndDate:   fl.Int("end_date", true),
		}
		for i, day := range weekdays {
			c.Days[i] = fl.Int(day, true)
			checkInt(fl, day, c.Days[i], 0, 1)
		}
		checkInt(fl, "start_date", c.StartDate, minDate, maxDate)
		checkInt(fl, "end_date", c.EndDate, minDate, maxDate)

		if id != "" {
			f.service(id).Calendar = c
		}
		return nil
	}
}

func bindCalendarDates(f *Feed) feed.RowFunc {
	return func(fl *feed.Fields) error {
		id := fl.String("service_id", true)

		d := CalendarDate{
			Date:          fl.Int("date", true),
			ExceptionType: fl.Int("exception_type", true),
		}
		checkInt(fl, "date", d.Date, minDate, maxDate)
		checkInt(fl, "exception_type", d.ExceptionType, 1, 2)

		if id != "" {
			svc := f.service(id)
			svc.Exceptions = append(svc.Exceptions, d)
		}
		return nil
	}
}
