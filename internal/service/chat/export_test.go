package chat

import "time"

// SetClock replaces the timestamp source of s.
func SetClock(s *Service, now func() time.Time) {
	s.now = now
}
