// Package clock provides the tracker's notion of "now". Unlike a normal
// process clock, the message clock advances only when a new message is
// ingested, and takes its value from that message's own timestamp rather
// than wall time.
package clock

import "time"

// Clock holds the two time bases the tracker needs: the message clock
// (driven by inbound message timestamps) and wall time (used by the
// periodic sweeper's once-per-second gate).
type Clock struct {
	messageNowMs int64
	lastSweepMs  int64
}

// New returns a Clock with no message observed yet.
func New() *Clock {
	return &Clock{}
}

// SetMessageTime advances the message clock to ms, the timestamp carried by
// the message currently being ingested. The value is set as given, so it
// moves backward when an older message arrives; internal/validity is
// responsible for rejecting any message whose effects would be applied out
// of order.
func (c *Clock) SetMessageTime(ms int64) {
	c.messageNowMs = ms
}

// Now returns the current message time in milliseconds.
func (c *Clock) Now() int64 {
	return c.messageNowMs
}

// WallNowMs returns the current wall-clock time in milliseconds, used only
// by the periodic sweeper's once-per-second gate.
func WallNowMs() int64 {
	return time.Now().UnixMilli()
}

// ShouldSweep reports whether at least one second of wall time has elapsed
// since the last sweep, and if so advances the internal gate.
func (c *Clock) ShouldSweep(wallNowMs int64) bool {
	if wallNowMs-c.lastSweepMs < 1000 {
		return false
	}
	c.lastSweepMs = wallNowMs
	return true
}
