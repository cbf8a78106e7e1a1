package engine

import "time"

// Clock is the book's only external time collaborator, used solely by the
// day-scoped pruner. Injecting it keeps the pruner testable against a fake
// "now" instead of coupling it to a process-global wall clock.
type Clock interface {
	Now() time.Time
}

// systemClock is the production Clock, backed by the real wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// pruneHour is the fixed local-time hour at which GoodForDay orders expire.
const pruneHour = 16

// nextCutoff returns the next 16:00:00 local-time instant strictly after now,
// rolling to tomorrow if now is at or past today's cutoff.
func nextCutoff(now time.Time) time.Time {
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), pruneHour, 0, 0, 0, now.Location())
	if !now.Before(cutoff) {
		cutoff = cutoff.AddDate(0, 0, 1)
	}
	return cutoff
}
