package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mkraemer/weekmaster/internal/service"
)

// TagHandler translates the tag endpoints onto the tag service.
type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// List handles GET /tags.
func (h *TagHandler) List(c *gin.Context) {
	infos, err := h.tags.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

// Search handles GET /tags/search?q=term.
func (h *TagHandler) Search(c *gin.Context) {
	infos, err := h.tags.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

// Autocomplete handles GET /tags/autocomplete?q=term&limit=n.
func (h *TagHandler) Autocomplete(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	infos, err := h.tags.Autocomplete(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, infos)
}

// TagNameInput DTO for tag create and rename
type TagNameInput struct {
	Name string `json:"name"`
}

// Create handles POST /tags.
func (h *TagHandler) Create(c *gin.Context) {
	var input TagNameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := h.tags.Create(c.Request.Context(), input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// Rename handles PUT /tags/:id.
func (h *TagHandler) Rename(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input TagNameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := h.tags.Rename(c.Request.Context(), id, input.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// Delete handles DELETE /tags/:id.
func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tag, err := h.tags.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted successfully", "tag": tag})
}
