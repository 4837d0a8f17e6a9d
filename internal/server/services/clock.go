package services

import "time"

// Clock is the time source of the services. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
