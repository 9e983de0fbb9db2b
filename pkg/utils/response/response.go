// Package response writes the JSON envelope shared by every API route
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error types reported in the error_type field
const (
	ErrorTypeInput    = "InputException"
	ErrorTypeNotFound = "NotFoundException"
	ErrorTypeDatabase = "DatabaseException"
	ErrorTypeServer   = "ServerException"
)

// Envelope is the body of every API response
type Envelope struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// SuccessResponse writes data with status "success"
func SuccessResponse(c echo.Context, data interface{}) error {
	return StatusResponse(c, "", data)
}

// StatusResponse writes data together with a status line such as
// "Successfully loaded 3 records of S&P 500"
func StatusResponse(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Status: "success", Message: message, Data: data})
}

// ErrorResponse writes an error envelope with the given HTTP status
func ErrorResponse(c echo.Context, httpStatus int, errorType, message string) error {
	return c.JSON(httpStatus, Envelope{Status: "error", ErrorType: errorType, Message: message})
}
