// Package gtfs binds the standard GTFS tables to the feed loader.
//
// Each table file registers a TableDefinition from init. Feed.Tables returns
// them in load order, so that referenced tables (agency, stops, routes,
// calendar) are populated before the tables that point at them.
//
//	f := gtfs.New("metro")
//	report, err := f.Load(ctx, archive, feed.Options{Policy: feed.DefaultPolicy})
package gtfs
