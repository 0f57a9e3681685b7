package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
	"github.com/noah-isme/eeeflix-contacts/pkg/response"
)

// AllowMethods rejects any other request method with 405 and an Allow header.
func AllowMethods(methods ...string) gin.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(c *gin.Context) {
		for _, m := range methods {
			if c.Request.Method == m {
				c.Next()
				return
			}
		}
		c.Header("Allow", allow)
		response.Fail(c, appErrors.ErrMethodNotAllowed)
	}
}
