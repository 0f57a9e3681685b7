package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "admin-token":
		return &models.JWTClaims{Username: "admin", Role: models.RoleAdmin}, nil
	case "viewer-token":
		return &models.JWTClaims{Username: "guest", Role: models.RoleViewer}, nil
	}
	return nil, errors.New("invalid")
}

func (stubValidator) ValidateAPIKey(key string) bool { return key == "k3y" }

func guardedRouter(enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(stubValidator{}))
	r.POST("/api/updateContacts", RequireRoles(enabled, models.RoleAdmin, models.RoleEditor), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})
	return r
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		header  string
		value   string
		status  int
		actor   string
	}{
		{name: "disabled lets anonymous through", enabled: false, status: http.StatusOK},
		{name: "anonymous rejected", enabled: true, status: http.StatusUnauthorized},
		{name: "api key accepted", enabled: true, header: APIKeyHeader, value: "k3y", status: http.StatusOK, actor: "api-key"},
		{name: "wrong api key rejected", enabled: true, header: APIKeyHeader, value: "nope", status: http.StatusUnauthorized},
		{name: "admin token accepted", enabled: true, header: "Authorization", value: "Bearer admin-token", status: http.StatusOK, actor: "admin"},
		{name: "viewer token forbidden", enabled: true, header: "Authorization", value: "Bearer viewer-token", status: http.StatusForbidden},
		{name: "malformed header rejected", enabled: true, header: "Authorization", value: "Token admin-token", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/updateContacts", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			w := httptest.NewRecorder()
			guardedRouter(tc.enabled).ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.actor, w.Body.String())
			}
		})
	}
}

func TestRequireRolesBodyShape(t *testing.T) {
	w := httptest.NewRecorder()
	guardedRouter(true).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/updateContacts", nil))
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}
