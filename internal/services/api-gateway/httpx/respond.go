// Package httpx holds the JSON envelope shared by the api-gateway controllers.
package httpx

import (
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

const RequestIDKey = "request_id"

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg, RequestID: c.GetString(RequestIDKey)})
}
