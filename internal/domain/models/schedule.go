package models

import "time"

// ScheduleRule sets the report interval for the listed weekdays.
type ScheduleRule struct {
	Days            []time.Weekday `json:"days"`
	IntervalMinutes int            `json:"interval_minutes"`
}

// Applies reports whether day is one of the rule's days.
func (r ScheduleRule) Applies(day time.Weekday) bool {
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

// DefaultReportMinutes is used when no rule matches the current day.
const DefaultReportMinutes = 25

func DefaultSchedule() []ScheduleRule {
	return []ScheduleRule{
		{Days: []time.Weekday{time.Friday}, IntervalMinutes: 71},
		{Days: []time.Weekday{time.Monday}, IntervalMinutes: 25},
		{Days: []time.Weekday{time.Tuesday}, IntervalMinutes: 23},
		{Days: []time.Weekday{time.Wednesday}, IntervalMinutes: 25},
		{Days: []time.Weekday{time.Thursday}, IntervalMinutes: 25},
	}
}
