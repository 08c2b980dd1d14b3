package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"attend-backend/eligibility"
	"attend-backend/models"
	"attend-backend/store"
)

type SessionHandler struct {
	store *store.Postgres
}

func NewSessionHandler(st *store.Postgres) *SessionHandler {
	return &SessionHandler{store: st}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if !req.EndAt.After(req.StartAt) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "end_at must be after start_at"})
		return
	}

	sess := &models.Session{
		OrganizationID: org.ID,
		Title:          req.Title,
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
		Status:         models.SessionScheduled,
	}
	if req.LocationID != "" {
		locID, err := uuid.Parse(req.LocationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid location_id"})
			return
		}
		sess.LocationID = &locID
	}
	if req.PublicCode != "" {
		sess.PublicCode = &req.PublicCode
	}

	if err := h.store.CreateSession(c, sess); err != nil {
		log.Printf("Error creating session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create session"})
		return
	}

	log.Printf("Created session %s (%s) for org %s", sess.ID, sess.Title, org.Slug)
	c.JSON(http.StatusCreated, gin.H{"success": true, "session": sess})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid session id"})
		return
	}

	sess, err := h.store.GetSession(c, org.ID, sessionID)
	if errors.Is(err, eligibility.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
		return
	}
	if err != nil {
		log.Printf("Error getting session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "session": sess})
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	sessions, err := h.store.ListSessions(c, org.ID)
	if err != nil {
		log.Printf("Error listing sessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": sessions, "count": len(sessions)})
}

func (h *SessionHandler) UpdateSessionStatus(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid session id"})
		return
	}

	var req models.UpdateSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	validStatuses := []string{models.SessionScheduled, models.SessionActive, models.SessionCompleted, models.SessionCancelled}
	isValid := false
	for _, status := range validStatuses {
		if req.Status == status {
			isValid = true
			break
		}
	}
	if !isValid {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid status"})
		return
	}

	err = h.store.UpdateSessionStatus(c, org.ID, sessionID, req.Status)
	if errors.Is(err, eligibility.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
		return
	}
	if err != nil {
		log.Printf("Error updating session status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update session status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Session status updated"})
}

// RotateQRToken issues a fresh QR bearer token for the session,
// invalidating the previous one. The token is returned once here and never
// serialized with the session afterwards.
func (h *SessionHandler) RotateQRToken(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid session id"})
		return
	}

	token := generateEventToken()
	err = h.store.SetSessionQRToken(c, org.ID, sessionID, token)
	if errors.Is(err, eligibility.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
		return
	}
	if err != nil {
		log.Printf("Error rotating QR token for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to rotate QR token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "qr_token": token})
}

func (h *SessionHandler) ListAttendance(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid session id"})
		return
	}

	if _, err := h.store.GetSession(c, org.ID, sessionID); err != nil {
		if errors.Is(err, eligibility.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
			return
		}
		log.Printf("Error getting session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	records, err := h.store.ListAttendanceBySession(c, org.ID, sessionID)
	if err != nil {
		log.Printf("Error listing attendance for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "records": records, "count": len(records)})
}

// generateEventToken returns an opaque random token for QR check-in.
func generateEventToken() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
