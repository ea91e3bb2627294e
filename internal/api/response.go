package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azairamail/EASYAiPOS/internal/backup"
	"github.com/azairamail/EASYAiPOS/internal/lifecycle"
)

// Response is the JSON envelope of every endpoint except the plain-text
// tickets.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func successResponse(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

func errorResponse(message string) Response {
	return Response{Success: false, Message: message}
}

// fail writes err with the status its kind maps to.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	resp := errorResponse(err.Error())
	resp.Code = string(lifecycle.CodeOf(err))
	c.AbortWithStatusJSON(status, resp)
}

func statusFor(err error) int {
	switch {
	case lifecycle.IsNotFound(err):
		return http.StatusNotFound
	case lifecycle.IsInvalidTransition(err):
		return http.StatusConflict
	case lifecycle.IsInvalidPIN(err):
		return http.StatusUnauthorized
	case lifecycle.IsInvalidRequest(err), backup.IsFormatError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
