// AngelaMos | 2026
// clock.go

package clock

import "time"

type Clock interface {
	Now() time.Time
}

type system struct{}

func System() Clock {
	return system{}
}

func (system) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant until moved with Advance.
type Fixed struct {
	now time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	return f.now
}

func (f *Fixed) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Today returns the UTC calendar date of c, truncated to midnight.
func Today(c Clock) time.Time {
	y, m, d := c.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
