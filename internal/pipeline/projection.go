package pipeline

import "time"

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ProjectMonthly extrapolates month-end cost by holding today's spend constant
// for every day of now's month. It does not smooth across days.
func ProjectMonthly(todayCost float64, now time.Time) float64 {
	return todayCost * float64(DaysInMonth(now.Year(), now.Month()))
}
