package entities

import "time"

type Event struct {
	EventID     string
	Name        string
	Date        time.Time
	OrganizerID string
}

// HasPassed is strict: an event dated exactly now has not passed yet.
func (e Event) HasPassed(now time.Time) bool {
	return e.Date.Before(now)
}
