package handlers

import (
	"crypto/rand"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"attend-backend/eligibility"
	"attend-backend/models"
	"attend-backend/store"
)

type PersonHandler struct {
	store *store.Postgres
}

func NewPersonHandler(st *store.Postgres) *PersonHandler {
	return &PersonHandler{store: st}
}

func (h *PersonHandler) CreatePerson(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	var req models.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	person := &models.Person{
		OrganizationID: org.ID,
		Name:           req.Name,
		CheckinCode:    generateCheckinCode(),
		Status:         models.PersonStatusActive,
	}
	if req.Email != "" {
		person.Email = &req.Email
	}
	if req.Phone != "" {
		person.Phone = &req.Phone
	}
	if req.ExternalID != "" {
		person.ExternalID = &req.ExternalID
	}

	if err := h.store.CreatePerson(c, person); err != nil {
		log.Printf("Error creating person: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create person"})
		return
	}

	log.Printf("Created person %s in org %s", person.ID, org.Slug)
	c.JSON(http.StatusCreated, gin.H{"success": true, "person": person})
}

func (h *PersonHandler) GetPerson(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid person id"})
		return
	}

	person, err := h.store.GetPersonByID(c, org.ID, personID)
	if errors.Is(err, eligibility.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Person not found"})
		return
	}
	if err != nil {
		log.Printf("Error getting person %s: %v", personID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "person": person})
}

func (h *PersonHandler) ListPeople(c *gin.Context) {
	org := resolveOrg(c, h.store)
	if org == nil {
		return
	}

	people, err := h.store.ListPeople(c, org.ID)
	if err != nil {
		log.Printf("Error listing people: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "people": people, "count": len(people)})
}

// checkinCodeAlphabet drops easily-confused characters (0/O, 1/I/L).
const checkinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateCheckinCode returns a short code people type at kiosks. Uniqueness
// within the organization is enforced by the database constraint.
func generateCheckinCode() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	code := make([]byte, len(buf))
	for i, b := range buf {
		code[i] = checkinCodeAlphabet[int(b)%len(checkinCodeAlphabet)]
	}
	return string(code)
}
