package eligibility

// Reason is a machine-checkable denial code. The set is closed: handlers and
// clients switch on these values, so new codes must be added here, not
// invented inline.
type Reason string

const (
	ReasonSessionNotFound  Reason = "session_not_found"
	ReasonSessionCancelled Reason = "session_cancelled"
	ReasonSessionClosed    Reason = "session_closed"
	ReasonNotYetStarted    Reason = "not_yet_started"
	ReasonAuthRequired     Reason = "authentication_required"
	ReasonNoLinkedPerson   Reason = "no_linked_person"
	ReasonPersonInactive   Reason = "person_inactive"
	ReasonInvalidProof     Reason = "invalid_proof"
	ReasonNoGeofence       Reason = "no_geofence_configured"
	ReasonOutsideGeofence  Reason = "outside_geofence"

	// ReasonAlreadyCheckedIn is raised by the caller on the insert race, not
	// by the engine: duplicates are only detectable at write time.
	ReasonAlreadyCheckedIn Reason = "already_checked_in"
)

// Message returns the human-readable text used in HTTP denial bodies.
func (r Reason) Message() string {
	switch r {
	case ReasonSessionNotFound:
		return "Session not found"
	case ReasonSessionCancelled:
		return "This session has been cancelled"
	case ReasonSessionClosed:
		return "Check-in for this session has closed"
	case ReasonNotYetStarted:
		return "Check-in for this session has not opened yet"
	case ReasonAuthRequired:
		return "You must be logged in to check in"
	case ReasonNoLinkedPerson:
		return "Your account is not linked to a member of this organization"
	case ReasonPersonInactive:
		return "This member is inactive"
	case ReasonInvalidProof:
		return "Invalid check-in code or token"
	case ReasonNoGeofence:
		return "Location check-in is not available for this session"
	case ReasonOutsideGeofence:
		return "You are outside the check-in area"
	case ReasonAlreadyCheckedIn:
		return "Already checked in to this session"
	}
	return "Check-in not allowed"
}
