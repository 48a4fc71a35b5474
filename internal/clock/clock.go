package clock

import "time"

type Clock interface {
	Now() time.Time
}

type Real struct{}

func NewReal() Clock {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

// Mock is a settable clock for tests. It is not safe for concurrent use.
type Mock struct {
	current time.Time
}

func NewMock(t time.Time) *Mock {
	return &Mock{current: t}
}

func (c *Mock) Now() time.Time {
	return c.current
}

func (c *Mock) Set(t time.Time) {
	c.current = t
}

func (c *Mock) Add(d time.Duration) {
	c.current = c.current.Add(d)
}
