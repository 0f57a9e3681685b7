package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/middleware"
	"github.com/noah-isme/eeeflix-contacts/internal/models"
	"github.com/noah-isme/eeeflix-contacts/internal/service"
	"github.com/noah-isme/eeeflix-contacts/pkg/logger"
	corsmiddleware "github.com/noah-isme/eeeflix-contacts/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/eeeflix-contacts/pkg/middleware/requestid"
)

// RouterConfig collects everything the HTTP surface needs.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	AuthEnabled    bool
	EnableDocs     bool
	Logger         *zap.Logger

	Contacts *ContactHandler
	Exports  *ExportHandler
	Backups  *BackupHandler
	Auth     *AuthHandler
	Metrics  *MetricsHandler

	AuthService    *service.AuthService
	MetricsService *service.MetricsService
	Audit          middleware.AuditSink
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.MetricsService, "/metrics"))
	r.Use(middleware.WithResponseMeta())
	if cfg.AuthService != nil {
		r.Use(middleware.Authenticate(cfg.AuthService))
	}

	writers := middleware.RequireRoles(cfg.AuthEnabled, models.RoleAdmin, models.RoleEditor)

	if cfg.Metrics != nil {
		r.GET("/health", cfg.Metrics.Health)
		r.GET("/ready", cfg.Metrics.Ready)
		r.GET("/metrics", cfg.Metrics.Prometheus)
	}
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	if cfg.Contacts != nil {
		r.GET("/assets/*filepath", cfg.Contacts.Assets)
		r.HEAD("/assets/*filepath", cfg.Contacts.Assets)

		// Every verb is routed here so non-POST requests get the 405 body.
		api.Any("/updateContacts", middleware.AllowMethods(http.MethodPost), writers, middleware.Audit(cfg.Audit, models.AuditActionContactUpdate, "contacts"), cfg.Contacts.Update)

		api.GET("/contacts", cfg.Contacts.List)
		api.GET("/contacts/:id", cfg.Contacts.Get)
	}
	if cfg.Exports != nil {
		api.POST("/exports", writers, middleware.Audit(cfg.Audit, models.AuditActionContactExport, "contacts"), cfg.Exports.Create)
		api.GET("/exports/:token", cfg.Exports.Download)
	}
	if cfg.Backups != nil {
		api.GET("/backups", writers, cfg.Backups.List)
	}
	if cfg.Auth != nil {
		api.POST("/auth/login", cfg.Auth.Login)
		api.GET("/auth/me", cfg.Auth.Me)
	}
	if cfg.Metrics != nil {
		api.GET("/metrics", cfg.Metrics.Snapshot)
	}
	return r
}
