package service

import "time"

// Clock returns the current time. Services take one so tests can pin the month.
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}
