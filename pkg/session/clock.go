package session

import "time"

// Clock returns the current time. Stores and handles accept one so tests can control expiry.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now()
}
