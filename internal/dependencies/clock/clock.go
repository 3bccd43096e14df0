package clock

import "time"

// Clock stamps session creation, deadlines and history records.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}
