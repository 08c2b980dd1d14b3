package eligibility

import "time"

// Config holds the engine's tunables. It is passed in explicitly so the
// engine stays a pure function of its inputs; nothing here is read from the
// environment at evaluation time.
type Config struct {
	// EarlyOpenGrace opens check-in this long before a session's start.
	EarlyOpenGrace time.Duration
	// LateCloseGrace keeps check-in open this long after a session's end.
	LateCloseGrace time.Duration
	// LateAfter marks a record "late" when the check-in lands this long
	// after the session's start.
	LateAfter time.Duration
	// AccuracyAdjust subtracts the device-reported GPS accuracy from the
	// allowed geofence radius. Off by default: the reported point is
	// treated as exact.
	AccuracyAdjust bool
}
