package api

import "github.com/gin-gonic/gin"

// SetupRouter wires the handlers into a Gin engine.
func SetupRouter(a *API) *gin.Engine {
	r := gin.Default()

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/tasks", a.ListTasksHandler)
		apiV1.POST("/process", a.ProcessHandler)
	}

	return r
}
