package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mkraemer/weekmaster/api/handlers"
	"github.com/mkraemer/weekmaster/internal/service"
	"gorm.io/gorm"
)

// SetupRouter wires the services and handlers onto a gin engine. Every core
// operation maps 1:1 to one route.
func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()
	r.Use(RequestID())

	taskService := service.NewTaskService(db)
	tagService := service.NewTagService(db)
	viewService := service.NewViewService(db)

	taskHandler := handlers.NewTaskHandler(taskService, viewService)
	tagHandler := handlers.NewTagHandler(tagService)
	dashboardHandler := handlers.NewDashboardHandler(viewService)
	referenceHandler := handlers.NewReferenceHandler(viewService)

	// Ping endpoint for health check
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.GET("/tasks", taskHandler.List)
	r.GET("/tasks/urgent", taskHandler.ListUrgent)
	r.GET("/tasks/user/:userId", taskHandler.ListByUser)
	r.GET("/tasks/tag/:tagId", taskHandler.ListByTag)
	r.POST("/tasks", taskHandler.Create)
	r.PUT("/tasks/:id", taskHandler.Update)
	r.PATCH("/tasks/:id/status", taskHandler.UpdateStatus)
	r.DELETE("/tasks/:id", taskHandler.Delete)

	r.GET("/tags", tagHandler.List)
	r.GET("/tags/search", tagHandler.Search)
	r.GET("/tags/autocomplete", tagHandler.Autocomplete)
	r.POST("/tags", tagHandler.Create)
	r.PUT("/tags/:id", tagHandler.Rename)
	r.DELETE("/tags/:id", tagHandler.Delete)

	r.GET("/users", referenceHandler.Users)
	r.GET("/priorities", referenceHandler.Priorities)
	r.GET("/status", referenceHandler.Statuses)

	r.GET("/dashboard/stats", dashboardHandler.Stats)
	r.GET("/dashboard/recent", dashboardHandler.Recent)
	r.GET("/dashboard/priorities", dashboardHandler.Priorities)

	return r
}

// RequestID stamps every response with an id for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
