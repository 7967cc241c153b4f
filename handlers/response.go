package handlers

import (
	"github.com/gin-gonic/gin"
)

// Every endpoint answers with the same envelope: a status discriminator
// plus either a data payload or a human-readable message.

func respondData(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, gin.H{
		"status": "success",
		"data":   data,
	})
}

func respondMessage(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"status":  "success",
		"message": message,
	})
}

func respondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"status":  "error",
		"message": message,
	})
}
