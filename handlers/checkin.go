package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"attend-backend/eligibility"
	"attend-backend/models"
	"attend-backend/store"
)

type CheckinHandler struct {
	store  *store.Postgres
	engine *eligibility.Engine
	cfg    eligibility.Config
}

func NewCheckinHandler(st *store.Postgres, engine *eligibility.Engine, cfg eligibility.Config) *CheckinHandler {
	return &CheckinHandler{store: st, engine: engine, cfg: cfg}
}

// PublicSelfCheckin handles POST /:orgSlug/api/self-checkin/public. The
// caller identifies themselves with a personal identifier and proves
// presence with a session code or QR token; the method is inferred from
// which proof was supplied.
func (h *CheckinHandler) PublicSelfCheckin(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	var req models.PublicCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	switch req.IdentifierType {
	case models.IdentifierPhone, models.IdentifierEmail, models.IdentifierCheckinCode, models.IdentifierExternalID:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid identifier_type"})
		return
	}

	var (
		method  string
		session *models.Session
		err     error
	)
	switch {
	case req.SessionCode != "":
		method = models.MethodEventCode
		session, err = h.store.FindSessionByCode(c, org.ID, req.SessionCode)
	case req.QRToken != "":
		method = models.MethodQR
		session, err = h.store.FindSessionByQRToken(c, org.ID, req.QRToken)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "session_code or qr_token is required"})
		return
	}
	if errors.Is(err, eligibility.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
		return
	}
	if err != nil {
		log.Printf("Error resolving session for public check-in: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	person, err := h.store.FindPersonByIdentifier(c, org.ID, req.IdentifierType, req.Identifier)
	if errors.Is(err, eligibility.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Person not found"})
		return
	}
	if err != nil {
		log.Printf("Error resolving person by %s: %v", req.IdentifierType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	verdict, err := h.engine.Compute(c, eligibility.Request{
		OrgID:     org.ID,
		SessionID: session.ID,
		PersonID:  &person.ID,
		Method:    method,
		Point:     pointFrom(req.Lat, req.Lng),
		Accuracy:  req.Accuracy,
		EventCode: req.SessionCode,
		QRToken:   req.QRToken,
	})
	if err != nil {
		log.Printf("Eligibility check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	if !verdict.Allowed {
		denyJSON(c, verdict)
		return
	}

	rec := h.insertRecord(c, org.ID, verdict, method, req.Lat, req.Lng, req.Accuracy, map[string]any{
		"self_checkin":    true,
		"authenticated":   false,
		"identifier_type": req.IdentifierType,
	})
	if rec == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully checked in",
		"record":  rec,
	})
}

// AuthSelfCheckin handles POST /:orgSlug/api/self-checkin/auth, behind
// RequireAuth. The engine resolves the account to a person via the
// organization's person-user link.
func (h *CheckinHandler) AuthSelfCheckin(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	var req models.AuthCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	switch req.Method {
	case models.MethodGeo, models.MethodEventCode, models.MethodQR:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid method"})
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid session_id"})
		return
	}

	userID := c.MustGet(userIDKey).(uuid.UUID)

	verdict, err := h.engine.Compute(c, eligibility.Request{
		OrgID:     org.ID,
		SessionID: sessionID,
		UserID:    &userID,
		Method:    req.Method,
		Point:     pointFrom(req.Lat, req.Lng),
		Accuracy:  req.Accuracy,
		EventCode: req.EventCode,
		QRToken:   req.QRToken,
	})
	if err != nil {
		log.Printf("Eligibility check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	if !verdict.Allowed {
		denyJSON(c, verdict)
		return
	}

	rec := h.insertRecord(c, org.ID, verdict, req.Method, req.Lat, req.Lng, req.Accuracy, map[string]any{
		"self_checkin":  true,
		"authenticated": true,
	})
	if rec == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully checked in",
		"record":  rec,
	})
}

// KioskCheckin handles POST /:orgSlug/api/events/:eventId/kiosk-checkin.
// The kiosk identifies the person by their per-organization check-in code;
// the method is fixed to kiosk.
func (h *CheckinHandler) KioskCheckin(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	sessionID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid event id"})
		return
	}

	var req models.KioskCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	person, err := h.store.FindPersonByCheckinCode(c, org.ID, req.PersonCheckinCode)
	if errors.Is(err, eligibility.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Person not found"})
		return
	}
	if err != nil {
		log.Printf("Error resolving person by checkin code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	verdict, err := h.engine.Compute(c, eligibility.Request{
		OrgID:     org.ID,
		SessionID: sessionID,
		PersonID:  &person.ID,
		Method:    models.MethodKiosk,
		Point:     pointFrom(req.Lat, req.Lng),
		Accuracy:  req.Accuracy,
	})
	if err != nil {
		log.Printf("Eligibility check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	if !verdict.Allowed {
		denyJSON(c, verdict)
		return
	}

	rec := h.insertRecord(c, org.ID, verdict, models.MethodKiosk, req.Lat, req.Lng, req.Accuracy, map[string]any{
		"kiosk": true,
	})
	if rec == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully checked in",
		"person":  person,
		"record":  rec,
	})
}

// insertRecord writes the attendance row after an allow verdict. The
// duplicate race on (session, person) surfaces here, after the engine said
// yes, and is reported as its own denial rather than a 500. Returns nil
// when a response was already written.
func (h *CheckinHandler) insertRecord(c *gin.Context, orgID uuid.UUID, verdict eligibility.Verdict, method string, lat, lng, accuracy *float64, metadata map[string]any) *models.AttendanceRecord {
	if verdict.Person == nil {
		log.Printf("Allow verdict without a resolved person for session %s", verdict.Session.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return nil
	}

	if method == models.MethodEventCode {
		metadata["proof"] = models.MethodEventCode
	}

	rec := &models.AttendanceRecord{
		OrganizationID: orgID,
		SessionID:      verdict.Session.ID,
		PersonID:       verdict.Person.ID,
		Method:         recordMethod(method),
		Status:         eligibility.AttendanceStatus(verdict.Session, time.Now(), h.cfg),
		Lat:            lat,
		Lng:            lng,
		Accuracy:       accuracy,
		Metadata:       metadata,
	}

	if err := h.store.InsertAttendance(c, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateCheckin) {
			denyJSON(c, eligibility.Verdict{Reason: eligibility.ReasonAlreadyCheckedIn})
			return nil
		}
		log.Printf("Error inserting attendance record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to record check-in"})
		return nil
	}

	log.Printf("Checked in person %s to session %s via %s", rec.PersonID, rec.SessionID, rec.Method)
	return rec
}

// recordMethod maps request-level methods onto the stored enum: code-based
// check-ins persist as qr, with the proof type kept in metadata.
func recordMethod(method string) string {
	if method == models.MethodEventCode {
		return models.MethodQR
	}
	return method
}

func denyJSON(c *gin.Context, v eligibility.Verdict) {
	body := gin.H{
		"success": false,
		"error":   v.Reason.Message(),
		"reason":  v.Reason,
	}
	if v.DistanceMeters != nil {
		body["distanceMeters"] = *v.DistanceMeters
	}
	if v.GeofenceRadius != nil {
		body["geofenceRadius"] = *v.GeofenceRadius
	}
	if v.RequiresLogin {
		body["requiresLogin"] = true
	}
	if v.RequiresInvite {
		body["requiresInvite"] = true
	}
	c.JSON(http.StatusForbidden, body)
}

func pointFrom(lat, lng *float64) *models.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &models.Point{Lat: *lat, Lng: *lng}
}
