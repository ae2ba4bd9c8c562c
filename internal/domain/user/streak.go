package user

import (
	"time"
)

// Streak tracks consecutive calendar days with qualifying activity.
type Streak struct {
	// Current - length of the running streak in days.
	Current int

	// Longest - best streak ever reached.
	Longest int

	// LastActivityDate - start-of-day timestamp of the last qualifying
	// activity. Zero when the user has never been active.
	LastActivityDate time.Time
}

// StreakChange describes what a qualifying activity did to the streak.
type StreakChange struct {
	// Extended - the streak grew (first activity or consecutive day).
	Extended bool

	// Broken - a gap of more than one calendar day reset the streak.
	Broken bool

	// Previous - streak length before the change. Meaningful when Broken.
	Previous int
}

// Record applies one qualifying activity on the given calendar day. The
// caller normalizes the timestamp to start of day (UTC) so that the gap
// arithmetic is pure day counting.
//
// Rules:
//   - no prior activity: streak starts at 1
//   - same day: no change
//   - exactly one day later: streak extends, longest follows
//   - more than one day later: streak resets to 1
func (s *Streak) Record(day time.Time) StreakChange {
	change := StreakChange{Previous: s.Current}

	switch {
	case s.LastActivityDate.IsZero():
		s.Current = 1
		change.Extended = true
	default:
		gap := daysBetween(s.LastActivityDate, day)
		switch {
		case gap == 0:
			// Already counted today.
		case gap == 1:
			s.Current++
			change.Extended = true
		default:
			s.Current = 1
			change.Broken = true
		}
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivityDate = day
	return change
}

// daysBetween counts whole calendar days from a to b. Both inputs are
// start-of-day timestamps in the same location.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
