package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/reschedule-api/internal/dto"
	"github.com/noah-isme/reschedule-api/internal/models"
	appErrors "github.com/noah-isme/reschedule-api/pkg/errors"
)

type proposalStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, proposal *models.AvailabilityProposal) error
	ListByChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID, userID string) ([]models.AvailabilityProposal, error)
}

type timeSlotReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimeSlot, error)
}

// Actor identifies the authenticated caller of a write.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// CanActFor reports whether the actor may submit data owned by userID.
func (a Actor) CanActFor(userID string) bool {
	return a.UserID == userID || a.Role == models.RoleAdmin || a.Role == models.RoleCoordinator
}

// ProposalService records the availability that recommendation generation
// intersects.
type ProposalService struct {
	changeRequests changeRequestReader
	users          userReader
	slots          timeSlotReader
	proposals      proposalStore
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewProposalService wires proposal dependencies.
func NewProposalService(changeRequests changeRequestReader, users userReader, slots timeSlotReader, proposals proposalStore, validate *validator.Validate, logger *zap.Logger) *ProposalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{
		changeRequests: changeRequests,
		users:          users,
		slots:          slots,
		proposals:      proposals,
		validator:      validate,
		logger:         logger,
	}
}

// Submit stores one availability proposal for a change request. Proposals
// for closed change requests are rejected.
func (s *ProposalService) Submit(ctx context.Context, changeRequestID string, actor Actor, req dto.SubmitProposalRequest) (*dto.ProposalView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}
	day, err := time.Parse(models.DayLayout, req.Day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal day")
	}

	userID := req.UserID
	if userID == "" {
		userID = actor.UserID
	}
	if !actor.CanActFor(userID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot submit availability for another user")
	}

	changeRequest, err := findChangeRequest(ctx, s.changeRequests, nil, changeRequestID)
	if err != nil {
		return nil, err
	}
	if changeRequest.Status.IsTerminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "change request is closed")
	}
	if _, err := findUser(ctx, s.users, nil, userID); err != nil {
		return nil, err
	}
	if _, err := s.slots.FindByID(ctx, nil, req.TimeSlotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}

	proposal := &models.AvailabilityProposal{
		ChangeRequestID: changeRequest.ID,
		UserID:          userID,
		Day:             day,
		TimeSlotID:      req.TimeSlotID,
	}
	if err := s.proposals.Create(ctx, nil, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store proposal")
	}

	s.logger.Info("availability proposal submitted",
		zap.String("change_request_id", changeRequest.ID),
		zap.String("user_id", userID),
		zap.String("actor_id", actor.UserID),
	)
	view := toProposalView(*proposal)
	return &view, nil
}

// List returns the proposals of a change request, optionally for one user.
func (s *ProposalService) List(ctx context.Context, changeRequestID, userID string) ([]dto.ProposalView, error) {
	if _, err := findChangeRequest(ctx, s.changeRequests, nil, changeRequestID); err != nil {
		return nil, err
	}
	proposals, err := s.proposals.ListByChangeRequest(ctx, nil, changeRequestID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list proposals")
	}
	views := make([]dto.ProposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, toProposalView(p))
	}
	return views, nil
}

func toProposalView(p models.AvailabilityProposal) dto.ProposalView {
	return dto.ProposalView{
		ID:                       p.ID,
		ChangeRequestID:          p.ChangeRequestID,
		UserID:                   p.UserID,
		Day:                      p.Day.Format(models.DayLayout),
		TimeSlotID:               p.TimeSlotID,
		AcceptedByLeader:         p.AcceptedByLeader,
		AcceptedByRepresentative: p.AcceptedByRepresentative,
	}
}
