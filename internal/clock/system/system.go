// Package system provides the wall clock used for token expiry, lead
// timestamps and export file names.
package system

import "time"

// Brasilia is UTC-3 all year; Brazil dropped daylight saving in 2019.
var Brasilia = time.FixedZone("BRT", -3*60*60)

// Clock implements auth.Clock and crm.Clock using time.Now.
type Clock struct {
	now func() time.Time
}

// New creates a Clock backed by the system time.
func New() *Clock {
	return &Clock{now: time.Now}
}

// Now returns the current instant in UTC. Stored timestamps are always UTC.
func (c *Clock) Now() time.Time {
	return c.now().UTC()
}

// Date returns the current calendar day in Brasilia as YYYY-MM-DD.
func (c *Clock) Date() string {
	return c.now().In(Brasilia).Format(time.DateOnly)
}
