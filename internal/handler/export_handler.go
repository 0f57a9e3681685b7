package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eeeflix-contacts/internal/dto"
	"github.com/noah-isme/eeeflix-contacts/internal/service"
	"github.com/noah-isme/eeeflix-contacts/pkg/response"
)

// ExportHandler serves contact directory exports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Export the contact directory
// @Tags Exports
// @Produce json
// @Param format query string false "csv (default) or pdf"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	result, err := h.exports.Generate(c.Request.Context(), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dto.ExportResponse{
		URL:       result.URL,
		Format:    result.Format,
		Records:   result.Records,
		ExpiresAt: result.ExpiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a generated export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.exports.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Type", file.ContentType)
	c.FileAttachment(file.Path, file.Name)
}
