// Package clock computes the canonical reporting windows in the deployment
// time zone. All functions are pure: given the same reference instant they
// return the same window.
package clock

import "time"

// IST is the fixed deployment zone (+5:30). Boards report in UTC; windows and
// presentation timestamps are anchored here.
var IST = time.FixedZone("IST", 5*3600+30*60)

const day = 24 * time.Hour

// LiveWindow returns the 24h window the live dashboard chart covers: it starts
// at the most recent local 14:00 at or before now and is right-open.
func LiveWindow(now time.Time) (start, end time.Time) {
	return anchoredWindow(now, 14, 0)
}

// ReportWindow returns the 24h window downloadable reports cover: it starts at
// the most recent local 08:30 at or before now and is right-open.
//
// The live and report paths intentionally keep separate anchors; do not unify
// them without confirming product intent.
func ReportWindow(now time.Time) (start, end time.Time) {
	return anchoredWindow(now, 8, 30)
}

func anchoredWindow(now time.Time, hour, min int) (start, end time.Time) {
	local := now.In(IST)
	start = time.Date(local.Year(), local.Month(), local.Day(), hour, min, 0, 0, IST)
	if start.After(local) {
		start = start.AddDate(0, 0, -1)
	}
	return start, start.Add(day)
}

// MonthWindow returns [first of month, first of next month) in IST.
// month is 1-based.
func MonthWindow(month time.Month, year int) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, IST)
	return start, start.AddDate(0, 1, 0)
}
