package router

import (
	"net/http"

	"github.com/cuongbtq/taskflow-be/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "task-api-service",
		})
	})

	taskHandler := handler.NewTaskHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		{
			// POST /api/v1/tasks - Enqueue a task creation job (202)
			tasks.POST("", taskHandler.EnqueueTask)

			// GET /api/v1/tasks/jobs/:job_id - Poll job status
			tasks.GET("/jobs/:job_id", taskHandler.GetJobStatus)

			// GET /api/v1/tasks/jobs/:job_id/result - Fetch the job outcome
			tasks.GET("/jobs/:job_id/result", taskHandler.GetJobResult)

			// GET /api/v1/tasks/queue/stats - Queue depth and availability
			tasks.GET("/queue/stats", taskHandler.GetQueueStats)
		}
	}

	return r
}
