package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkraemer/weekmaster/internal/service"
)

// ReferenceHandler serves the fixed lookup vocabularies for selection lists.
type ReferenceHandler struct {
	views *service.ViewService
}

func NewReferenceHandler(views *service.ViewService) *ReferenceHandler {
	return &ReferenceHandler{views: views}
}

// Users handles GET /users.
func (h *ReferenceHandler) Users(c *gin.Context) {
	users, err := h.views.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Priorities handles GET /priorities.
func (h *ReferenceHandler) Priorities(c *gin.Context) {
	priorities, err := h.views.ListPriorities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, priorities)
}

// Statuses handles GET /status.
func (h *ReferenceHandler) Statuses(c *gin.Context) {
	statuses, err := h.views.ListStatuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}
