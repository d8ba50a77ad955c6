package handlers

import (
	"net/http"

	"medbook/middleware"
	"medbook/models"
	"medbook/utils"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	utils.RespondError(c, getLogger(c), err)
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
}

// principal returns the authenticated caller. Routes behind JWTAuthMiddleware always have one.
func principal(c *gin.Context) (utils.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		respondError(c, utils.AuthenticationError("Insufficient authorization"))
	}
	return p, ok
}

// canAccess reports whether p may read or act on booking b. Staff see every booking; patients
// only their own.
func canAccess(p utils.Principal, b *models.Booking) bool {
	return p.IsStaff() || b.PatientID == p.ID
}

func forbidden(c *gin.Context) {
	respondError(c, utils.AuthorizationError("You do not have access to this booking"))
}
