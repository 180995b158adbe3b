package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"Friday":    time.Friday,
		"friday":    time.Friday,
		" SUNDAY ":  time.Sunday,
		"Wednesday": time.Wednesday,
	}
	for in, want := range cases {
		got, ok := ParseWeekday(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseWeekday("Fri")
	assert.False(t, ok)
}

func TestWeekdayNamesRoundTrip(t *testing.T) {
	names := WeekdayNames([]time.Weekday{time.Monday, time.Friday})
	assert.Equal(t, []string{"Monday", "Friday"}, names)
}

func TestUTCWeekday(t *testing.T) {
	// 23:30 Thursday in UTC-5 is already Friday in UTC.
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 10, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, time.Friday, UTCWeekday(ts))
}
