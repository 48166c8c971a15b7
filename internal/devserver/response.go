// internal/devserver/response.go
package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// fieldError matches the structured field errors the client normalizes.
type fieldError struct {
	Field string `json:"field,omitempty"`
	Msg   string `json:"msg"`
}

func respondData(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"message": message, "data": data})
}

func respondError(c *gin.Context, status int, message string, fields ...fieldError) {
	c.Abort()
	body := gin.H{"message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	c.JSON(status, body)
}
