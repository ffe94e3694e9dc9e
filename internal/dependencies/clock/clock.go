package clock

import "time"

// Clock abstracts the wall clock so session timestamps can be pinned in tests
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock in UTC
type SystemClock struct{}

// New creates a new SystemClock
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current UTC time
func (c *SystemClock) Now() time.Time {
	return time.Now().UTC()
}
