package service

import (
	"ptcoach/pt-server/internal/domain"
	"time"
)

// Calendar decides what "now" and "today" mean for lifecycle guards.
type Calendar struct {
	now      func() time.Time
	location *time.Location
}

// NewCalendar uses the wall clock. A nil location means UTC.
func NewCalendar(location *time.Location) Calendar {
	return NewCalendarWithClock(location, time.Now)
}

func NewCalendarWithClock(location *time.Location, now func() time.Time) Calendar {
	if location == nil {
		location = time.UTC
	}
	return Calendar{now: now, location: location}
}

func (c Calendar) Now() time.Time {
	return c.now().UTC()
}

// Today is the current calendar date in the configured location.
func (c Calendar) Today() domain.Date {
	return domain.DateOf(c.now().In(c.location))
}
