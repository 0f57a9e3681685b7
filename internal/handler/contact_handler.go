package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/eeeflix-contacts/internal/dto"
	"github.com/noah-isme/eeeflix-contacts/internal/middleware"
	"github.com/noah-isme/eeeflix-contacts/internal/models"
	"github.com/noah-isme/eeeflix-contacts/internal/service"
	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
	"github.com/noah-isme/eeeflix-contacts/pkg/logger"
	"github.com/noah-isme/eeeflix-contacts/pkg/response"
)

// ContactHandler exposes the contact store over HTTP.
type ContactHandler struct {
	contacts     *service.ContactService
	assetsDir    string
	contactsFile string
	logger       *zap.Logger
}

// NewContactHandler constructs ContactHandler. contactsFile is the store file
// name as it appears under /assets.
func NewContactHandler(contacts *service.ContactService, assetsDir, contactsFile string, log *zap.Logger) *ContactHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactHandler{contacts: contacts, assetsDir: assetsDir, contactsFile: contactsFile, logger: log}
}

// Update godoc
// @Summary Update student contacts
// @Description Patches one student's phone and facebook link when studentId is set, or replaces the whole store when updateAll is true and allStudents is an array.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param If-Match header string false "Store revision from a previous ETag"
// @Param payload body dto.UpdateContactsRequest true "Update payload"
// @Success 200 {object} response.Outcome
// @Failure 400 {object} response.Failure
// @Failure 405 {object} response.Failure
// @Failure 412 {object} response.Failure
// @Failure 500 {object} response.Failure
// @Router /updateContacts [post]
func (h *ContactHandler) Update(c *gin.Context) {
	var req dto.UpdateContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.FromContext(c, h.logger).Debug("update payload rejected", zap.Error(err))
		response.Fail(c, appErrors.ErrInvalidRequest)
		return
	}

	result, err := h.contacts.Apply(c.Request.Context(), req, c.GetHeader("If-Match"))
	if err != nil {
		if status := appErrors.StatusOf(err); status < http.StatusInternalServerError {
			logger.FromContext(c, h.logger).Info("contact update rejected", zap.Int("status", status), zap.Error(err))
		}
		response.Fail(c, err)
		return
	}
	if result.Revision != "" {
		c.Header("ETag", quote(result.Revision))
	}
	response.Success(c, result.Message)
}

// Assets serves files under /assets. The contact store file is read through
// the service so every storage driver answers the same URL.
func (h *ContactHandler) Assets(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")
	if name != h.contactsFile {
		c.FileFromFS(name, gin.Dir(h.assetsDir, false))
		return
	}

	snap, err := h.contacts.Snapshot(c.Request.Context())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Status(http.StatusNotFound)
			return
		}
		logger.FromContext(c, h.logger).Error("contact store unreadable", zap.Error(err))
		response.Error(c, err)
		return
	}

	etag := quote(snap.Revision)
	middleware.SetCacheHit(c, snap.Cached)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if match := c.GetHeader("If-None-Match"); match != "" && service.RevisionMatches(match, snap.Revision) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", snap.Raw)
}

// List godoc
// @Summary Search contacts
// @Tags Contacts
// @Produce json
// @Param search query string false "Case-insensitive match on id, phone or link"
// @Param page query int false "Page"
// @Param limit query int false "Page size (5, 10, 20 or 50)"
// @Success 200 {object} response.Envelope
// @Router /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	query := models.ContactQuery{Search: strings.TrimSpace(c.Query("search"))}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		query.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(models.DefaultPageSize))); err == nil {
		query.PageSize = size
	}

	contacts, pagination, err := h.contacts.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contacts, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get one student's contact
// @Tags Contacts
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contacts/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student id must be a positive integer"))
		return
	}
	contact, err := h.contacts.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contact, nil)
}

func quote(revision string) string {
	return `"` + revision + `"`
}
