package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServiceName is reported by the API root
const ServiceName = "task-api"

// Home reports that the API is up
func Home(c *gin.Context) {
	respond(c, http.StatusOK, "API is up", gin.H{"service": ServiceName})
}

// Health is the liveness probe
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Task API is running",
	})
}

// NoRoute answers requests that match no route
func NoRoute(c *gin.Context) {
	respond(c, http.StatusNotFound, "Route not found", nil)
}
