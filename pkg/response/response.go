package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
)

// Envelope is the contract of the read API.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Outcome is the body of the contact update endpoint on success.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Failure is the body of the contact update endpoint on error.
type Failure struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON sends an envelope with optional pagination and meta.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Error sends an envelope carrying err converted to an application error.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Status, Envelope{Error: appErr})
}

// Success writes {"success":true,"message":...} with status 200.
func Success(c *gin.Context, message string) {
	noStore(c)
	c.JSON(http.StatusOK, Outcome{Success: true, Message: message})
}

// Fail writes {"error":...,"message":...} using the status of err. The message
// member carries the wrapped cause when there is one.
func Fail(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	body := Failure{Error: appErr.Message}
	if cause := appErr.Unwrap(); cause != nil {
		body.Message = cause.Error()
	}
	noStore(c)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Status, body)
}
