package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"attend-backend/eligibility"
	"attend-backend/models"
	"attend-backend/store"
)

const userIDKey = "user_id"

// RequireAuth validates the Bearer token and stores the account's user id
// in the gin context. Denials use the same 403 requiresLogin shape the
// engine produces; this API never answers 401.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			denyLogin(c)
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			denyLogin(c)
			return
		}

		raw, _ := claims["user_id"].(string)
		userID, err := uuid.Parse(raw)
		if err != nil {
			denyLogin(c)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func denyLogin(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success":       false,
		"error":         eligibility.ReasonAuthRequired.Message(),
		"reason":        eligibility.ReasonAuthRequired,
		"requiresLogin": true,
	})
}

// resolveOrg loads the tenant for the :orgSlug path segment. It writes the
// response itself on failure and returns nil.
func resolveOrg(c *gin.Context, st *store.Postgres) *models.Organization {
	slug := c.Param("orgSlug")
	org, err := st.GetOrganizationBySlug(c, slug)
	if errors.Is(err, eligibility.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Organization not found"})
		return nil
	}
	if err != nil {
		log.Printf("Error resolving organization %s: %v", slug, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return nil
	}
	return org
}
