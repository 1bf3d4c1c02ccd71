package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mkraemer/weekmaster/internal/service"
)

// respondError translates the service error taxonomy into HTTP statuses.
// Internal detail is logged with the request id, never echoed; validation,
// not-found and conflict messages are the caller-facing text.
func respondError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case service.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("request %s failed: %v", c.Writer.Header().Get("X-Request-ID"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

// paramID parses a numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}
