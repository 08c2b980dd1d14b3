package eligibility

import (
	"crypto/subtle"
	"strings"

	"attend-backend/models"
)

// ProofResult is the outcome of verifying a single check-in credential.
// Distance diagnostics are populated for geo proofs regardless of verdict.
type ProofResult struct {
	Valid          bool
	Reason         Reason
	DistanceMeters *float64
	GeofenceRadius *float64
}

// VerifyProof checks the credential for the requested method against the
// session's registered proofs. QR tokens are bearer secrets: compared in
// constant time and never logged. Kiosk requests carry no credential; the
// kiosk's trust comes from device placement, so the proof level always
// passes and the window/identity gates do the gating.
func VerifyProof(method string, req Request, s *models.Session, fence *models.Geofence, cfg Config) ProofResult {
	switch method {
	case models.MethodQR:
		if req.QRToken == "" || s.EventQRToken == nil || *s.EventQRToken == "" {
			return ProofResult{Reason: ReasonInvalidProof}
		}
		if subtle.ConstantTimeCompare([]byte(req.QRToken), []byte(*s.EventQRToken)) != 1 {
			return ProofResult{Reason: ReasonInvalidProof}
		}
		return ProofResult{Valid: true}

	case models.MethodEventCode:
		if req.EventCode == "" || s.PublicCode == nil || *s.PublicCode == "" {
			return ProofResult{Reason: ReasonInvalidProof}
		}
		if !strings.EqualFold(req.EventCode, *s.PublicCode) {
			return ProofResult{Reason: ReasonInvalidProof}
		}
		return ProofResult{Valid: true}

	case models.MethodGeo:
		if fence == nil {
			return ProofResult{Reason: ReasonNoGeofence}
		}
		res := EvaluateGeofence(req.Point, req.Accuracy, fence, cfg)
		pr := ProofResult{DistanceMeters: res.DistanceMeters}
		if fence.Type == models.GeofenceRadius {
			radius := fence.RadiusM
			pr.GeofenceRadius = &radius
		}
		if !res.Inside {
			pr.Reason = ReasonOutsideGeofence
			return pr
		}
		pr.Valid = true
		return pr

	case models.MethodKiosk:
		return ProofResult{Valid: true}
	}

	return ProofResult{Reason: ReasonInvalidProof}
}
