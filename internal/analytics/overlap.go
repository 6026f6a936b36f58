package analytics

import "time"

const secondsPerDay = 24 * 60 * 60

// civilDay numbers t's calendar date as days since the Unix epoch. Working on
// calendar dates keeps night counts independent of clock time and DST.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// WholeNights counts the nights between two dates. It is negative when end
// precedes start.
func WholeNights(start, end time.Time) int {
	return int(civilDay(end) - civilDay(start))
}

// OverlapNights counts the nights a stay [recordStart, recordEnd) spends in
// the month [monthStart, monthEnd). monthEnd is the first instant of the next
// month.
func OverlapNights(recordStart, recordEnd, monthStart, monthEnd time.Time) int {
	if recordStart.After(monthEnd) || recordEnd.Before(monthStart) {
		return 0
	}
	start := recordStart
	if monthStart.After(start) {
		start = monthStart
	}
	end := recordEnd
	if monthEnd.Before(end) {
		end = monthEnd
	}
	if !start.Before(end) {
		return 0
	}
	if n := WholeNights(start, end); n > 0 {
		return n
	}
	return 0
}
