package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/reschedule-api/internal/dto"
	"github.com/noah-isme/reschedule-api/internal/service"
	appErrors "github.com/noah-isme/reschedule-api/pkg/errors"
	"github.com/noah-isme/reschedule-api/pkg/response"
)

type proposalRecorder interface {
	Submit(ctx context.Context, changeRequestID string, actor service.Actor, req dto.SubmitProposalRequest) (*dto.ProposalView, error)
	List(ctx context.Context, changeRequestID, userID string) ([]dto.ProposalView, error)
}

// ProposalHandler exposes availability proposals of a change request.
type ProposalHandler struct {
	service proposalRecorder
	logger  *zap.Logger
}

// NewProposalHandler constructs the handler.
func NewProposalHandler(svc proposalRecorder, logger *zap.Logger) *ProposalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalHandler{service: svc, logger: logger}
}

// Submit godoc
// @Summary Submit availability
// @Description Records that a user is free at the given day and time slot. Admins and coordinators may submit for other users.
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Change request ID"
// @Param payload body dto.SubmitProposalRequest true "Availability"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /change-requests/{id}/proposals [post]
func (h *ProposalHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid proposal payload"))
		return
	}

	view, err := h.service.Submit(c.Request.Context(), c.Param("id"), service.Actor{UserID: claims.UserID, Role: claims.Role}, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Debug("proposal stored", append(actorFields(c), zap.String("proposal_id", view.ID))...)
	response.Created(c, view)
}

// List godoc
// @Summary List availability proposals
// @Tags Proposals
// @Produce json
// @Param id path string true "Change request ID"
// @Param user_id query string false "Only this user's proposals"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /change-requests/{id}/proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	views, err := h.service.List(c.Request.Context(), c.Param("id"), c.Query("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil, map[string]interface{}{"count": len(views)})
}
