package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, Value(c)) })
	return r
}

func TestMiddlewareKeepsClientID(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "abc-123")
	newRouter().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(Header))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestMiddlewareGeneratesID(t *testing.T) {
	for _, incoming := range []string{"", strings.Repeat("x", 200)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header.Set(Header, incoming)
		}
		newRouter().ServeHTTP(w, req)

		assert.Len(t, w.Header().Get(Header), 36)
		assert.Equal(t, w.Header().Get(Header), w.Body.String())
	}
}
