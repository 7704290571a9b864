package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/apierr"
)

// RespondAPIError maps a service error to its status and `{error}` body.
// Anything that is not an *apierr.Error becomes a generic 500.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	msg := ae.Error()
	if ae.Status == http.StatusInternalServerError && ae.Code == "internal" {
		msg = "internal server error"
	}
	c.JSON(ae.Status, gin.H{"error": msg})
}

func RespondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
