package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkraemer/weekmaster/internal/service"
)

// TaskHandler translates the task endpoints onto the task and view services.
type TaskHandler struct {
	tasks *service.TaskService
	views *service.ViewService
}

func NewTaskHandler(tasks *service.TaskService, views *service.ViewService) *TaskHandler {
	return &TaskHandler{tasks: tasks, views: views}
}

// List handles GET /tasks.
func (h *TaskHandler) List(c *gin.Context) {
	rows, err := h.views.ListTasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListUrgent handles GET /tasks/urgent.
func (h *TaskHandler) ListUrgent(c *gin.Context) {
	rows, err := h.views.UrgentTasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListByUser handles GET /tasks/user/:userId.
func (h *TaskHandler) ListByUser(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	rows, err := h.views.TasksByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListByTag handles GET /tasks/tag/:tagId.
func (h *TaskHandler) ListByTag(c *gin.Context) {
	tagID, ok := paramID(c, "tagId")
	if !ok {
		return
	}
	rows, err := h.views.TasksByTag(c.Request.Context(), tagID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	var input service.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.tasks.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// Update handles PUT /tasks/:id. Full field replace, no partial merge.
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input service.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.tasks.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// UpdateStatusInput DTO for the status-only update
type UpdateStatusInput struct {
	StatusID uint `json:"status_id"`
}

// UpdateStatus handles PATCH /tasks/:id/status.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.tasks.UpdateStatus(c.Request.Context(), id, input.StatusID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Delete handles DELETE /tasks/:id and returns the removed row.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := h.tasks.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully", "task": row})
}
