package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imageforensics/internal/domain"
	"imageforensics/internal/service"
)

type Handler struct {
	service service.ForensicsService
	log     *zap.Logger
}

func NewHandler(service service.ForensicsService, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

func (h *Handler) ProcessFolder(c *gin.Context) {
	var req domain.ProcessFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: err.Error()})
		return
	}

	folder := *req.FolderPath
	results, err := h.service.ProcessFolder(c.Request.Context(), folder)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, domain.NewProcessFolderResponse(results))
	case errors.Is(err, domain.ErrFolderNotFound):
		// Existing clients expect 200 here.
		c.JSON(http.StatusOK, domain.ErrorResponse{Error: domain.ErrFolderNotFound.Message})
	case errors.Is(err, domain.ErrFolderNotAllowed):
		h.log.Warn("Folder outside allowed roots", zap.String("folder", folder))
		c.JSON(http.StatusForbidden, domain.ErrorResponse{Error: domain.ErrFolderNotAllowed.Message})
	default:
		h.log.Error("Failed to process folder",
			zap.String("folder", folder),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "Failed to process folder"})
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
