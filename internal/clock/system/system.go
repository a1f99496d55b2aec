// Package system is the wall-clock source behind date-window
// calculations, e.g. the trailing daily-close range sent to Polygon.
// Callers take the small Clock interface so tests can pin time.
package system

import "time"

// Clock yields the current instant in UTC. Polygon date paths are
// UTC-based, so the conversion happens here rather than at every caller.
type Clock struct{}

// New returns a Clock.
func New() *Clock {
	return &Clock{}
}

// Now reports the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
