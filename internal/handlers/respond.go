package handler

import "github.com/gin-gonic/gin"

// fail writes the error envelope every endpoint shares.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}
