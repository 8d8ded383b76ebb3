package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/reschedule-api/internal/dto"
	appErrors "github.com/noah-isme/reschedule-api/pkg/errors"
	"github.com/noah-isme/reschedule-api/pkg/response"
)

type recommendationEngine interface {
	Generate(ctx context.Context, changeRequestID string, req dto.GenerateRecommendationsRequest) (*dto.GenerateRecommendationsResponse, error)
	List(ctx context.Context, changeRequestID string) ([]dto.RecommendationView, error)
	Clear(ctx context.Context, changeRequestID string) (int64, error)
	Export(ctx context.Context, changeRequestID, format string) (*dto.ExportFile, error)
}

// RecommendationHandler exposes recommendation endpoints of a change request.
type RecommendationHandler struct {
	service recommendationEngine
	logger  *zap.Logger
}

// NewRecommendationHandler constructs the handler.
func NewRecommendationHandler(svc recommendationEngine, logger *zap.Logger) *RecommendationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationHandler{service: svc, logger: logger}
}

// Generate godoc
// @Summary Generate room recommendations
// @Description Intersects both users' availability for the change request and stores one recommendation per free matching room.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param id path string true "Change request ID"
// @Param payload body dto.GenerateRecommendationsRequest true "Negotiating parties"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id}/recommendations [post]
func (h *RecommendationHandler) Generate(c *gin.Context) {
	var req dto.GenerateRecommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recommendation payload"))
		return
	}

	id := c.Param("id")
	res, err := h.service.Generate(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.logger.Info("recommendations requested", append(actorFields(c),
		zap.String("change_request_id", id),
		zap.Int("created", res.CreatedCount),
	)...)
	response.Created(c, res)
}

// List godoc
// @Summary List stored recommendations
// @Tags Recommendations
// @Produce json
// @Param id path string true "Change request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id}/recommendations [get]
func (h *RecommendationHandler) List(c *gin.Context) {
	views, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil, map[string]interface{}{"count": len(views)})
}

// Clear godoc
// @Summary Delete stored recommendations
// @Tags Recommendations
// @Param id path string true "Change request ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id}/recommendations [delete]
func (h *RecommendationHandler) Clear(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.service.Clear(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("recommendations cleared", append(actorFields(c),
		zap.String("change_request_id", id),
		zap.Int64("deleted", deleted),
	)...)
	response.NoContent(c)
}

// Export godoc
// @Summary Download stored recommendations
// @Tags Recommendations
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Change request ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id}/recommendations/export [get]
func (h *RecommendationHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
