package eligibility

import (
	"time"

	"attend-backend/models"
)

// WindowResult says whether a session currently accepts check-ins.
type WindowResult struct {
	Open   bool
	Reason Reason
}

// SessionWindow evaluates the check-in window for a session at the given
// time. Cancelled and completed sessions are closed at every instant;
// otherwise the single open interval is
// [start - EarlyOpenGrace, end + LateCloseGrace].
func SessionWindow(s *models.Session, now time.Time, cfg Config) WindowResult {
	switch s.Status {
	case models.SessionCancelled:
		return WindowResult{Reason: ReasonSessionCancelled}
	case models.SessionCompleted:
		return WindowResult{Reason: ReasonSessionClosed}
	}

	if now.Before(s.StartAt.Add(-cfg.EarlyOpenGrace)) {
		return WindowResult{Reason: ReasonNotYetStarted}
	}
	if now.After(s.EndAt.Add(cfg.LateCloseGrace)) {
		return WindowResult{Reason: ReasonSessionClosed}
	}
	return WindowResult{Open: true}
}

// AttendanceStatus classifies an allowed check-in as present or late based
// on how far past the session's start it landed.
func AttendanceStatus(s *models.Session, now time.Time, cfg Config) string {
	if now.After(s.StartAt.Add(cfg.LateAfter)) {
		return models.AttendanceLate
	}
	return models.AttendancePresent
}
