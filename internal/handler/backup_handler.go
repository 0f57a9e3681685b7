package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eeeflix-contacts/internal/dto"
	"github.com/noah-isme/eeeflix-contacts/internal/service"
	appErrors "github.com/noah-isme/eeeflix-contacts/pkg/errors"
	"github.com/noah-isme/eeeflix-contacts/pkg/response"
)

// BackupHandler lists pre-write snapshots of the contact store.
type BackupHandler struct {
	backups *service.BackupService
}

// NewBackupHandler constructs BackupHandler.
func NewBackupHandler(backups *service.BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// List godoc
// @Summary List contact store backups
// @Tags Backups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	objects, err := h.backups.List()
	if err != nil {
		response.Error(c, appErrors.ErrInternal.Because(err, "failed to list backups"))
		return
	}
	out := make([]dto.BackupResponse, 0, len(objects))
	for _, o := range objects {
		out = append(out, dto.BackupResponse{Name: o.Name, Size: o.Size, CreatedAt: o.ModTime.UTC()})
	}
	response.JSON(c, http.StatusOK, out, nil)
}
