package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eeeflix-contacts/internal/middleware"
	"github.com/noah-isme/eeeflix-contacts/internal/models"
	"github.com/noah-isme/eeeflix-contacts/internal/service"
	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
	"github.com/noah-isme/eeeflix-contacts/pkg/response"
)

// AuthHandler exposes operator login and credential introspection.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Identity describes the credentials presented with a request.
type Identity struct {
	Actor    string          `json:"actor"`
	Username string          `json:"username,omitempty"`
	Role     models.UserRole `json:"role,omitempty"`
	Method   string          `json:"method"`
	CanWrite bool            `json:"can_write"`
}

// Login godoc
// @Summary Exchange operator credentials for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.Because(err, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Describe the credentials sent with this request
// @Tags Auth
// @Produce json
// @Security ApiKey
// @Security Bearer
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.Actor(c)
	if actor == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := Identity{Actor: actor, Method: "api-key", CanWrite: true}
	if claims := middleware.Claims(c); claims != nil {
		id.Username = claims.Username
		id.Role = claims.Role
		id.Method = "bearer"
		id.CanWrite = claims.Role.CanWrite()
	}
	response.JSON(c, http.StatusOK, id, nil)
}
