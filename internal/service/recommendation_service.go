package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/reschedule-api/internal/dto"
	"github.com/noah-isme/reschedule-api/internal/models"
	"github.com/noah-isme/reschedule-api/pkg/cache"
	appErrors "github.com/noah-isme/reschedule-api/pkg/errors"
	"github.com/noah-isme/reschedule-api/pkg/export"
)

type changeRequestReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ChangeRequest, error)
}

type userReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.User, error)
}

type proposalReader interface {
	ListByUserAndChangeRequest(ctx context.Context, exec sqlx.ExtContext, userID, changeRequestID string) ([]models.AvailabilityProposal, error)
}

type roomCatalogue interface {
	ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.Room, error)
}

type roomEligibility interface {
	Eligible(ctx context.Context, exec sqlx.ExtContext, rooms []models.Room, slot models.CandidateSlot, reqs RoomRequirements) ([]models.Room, error)
}

type recommendationStore interface {
	LockChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) error
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, recommendations []models.ChangeRecommendation) (int, error)
	ListByChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) ([]models.ChangeRecommendation, error)
	DeleteByChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) (int64, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type recommendationCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Invalidate(ctx context.Context, keys ...string)
}

// RecommendationConfig governs recommendation generation.
type RecommendationConfig struct {
	// Isolation applies to the generation transaction. The zero value maps
	// to repeatable read.
	Isolation sql.IsolationLevel
}

// RecommendationService turns two parties' availability into persisted
// (day, slot, room) recommendations for a change request.
type RecommendationService struct {
	changeRequests  changeRequestReader
	users           userReader
	proposals       proposalReader
	rooms           roomCatalogue
	filter          roomEligibility
	recommendations recommendationStore
	tx              txProvider
	cache           recommendationCache
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	config          RecommendationConfig
}

// NewRecommendationService wires recommendation dependencies.
func NewRecommendationService(
	changeRequests changeRequestReader,
	users userReader,
	proposals proposalReader,
	rooms roomCatalogue,
	filter roomEligibility,
	recommendations recommendationStore,
	tx txProvider,
	cache recommendationCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RecommendationConfig,
) *RecommendationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Isolation == sql.LevelDefault {
		cfg.Isolation = sql.LevelRepeatableRead
	}
	return &RecommendationService{
		changeRequests:  changeRequests,
		users:           users,
		proposals:       proposals,
		rooms:           rooms,
		filter:          filter,
		recommendations: recommendations,
		tx:              tx,
		cache:           cache,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		config:          cfg,
	}
}

// Generate computes and stores recommendations for a change request. The
// whole run shares one transaction: either every row is written or none.
func (s *RecommendationService) Generate(ctx context.Context, changeRequestID string, req dto.GenerateRecommendationsRequest) (resp *dto.GenerateRecommendationsResponse, err error) {
	started := time.Now()
	outcome := OutcomeFailed
	created := 0
	defer func() {
		s.metrics.ObserveGeneration(outcome, created, time.Since(started))
	}()

	if verr := s.validator.Struct(req); verr != nil {
		outcome = OutcomeInvalid
		return nil, appErrors.Wrap(verr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recommendation payload")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: s.config.Isolation})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.recommendations.LockChangeRequest(ctx, tx, changeRequestID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock change request")
		return nil, err
	}

	changeRequest, err := s.loadChangeRequest(ctx, tx, changeRequestID)
	if err != nil {
		outcome = outcomeFor(err)
		return nil, err
	}
	for _, userID := range []string{req.User1ID, req.User2ID} {
		if err = s.ensureUser(ctx, tx, userID); err != nil {
			outcome = outcomeFor(err)
			return nil, err
		}
	}

	candidates, err := s.commonAvailability(ctx, tx, changeRequest.ID, req.User1ID, req.User2ID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		outcome = OutcomeNoCommonAvailability
		err = appErrors.Clone(appErrors.ErrNoCommonAvailability, "")
		return nil, err
	}

	recommendations, err := s.materialize(ctx, tx, changeRequest, candidates)
	if err != nil {
		return nil, err
	}
	if len(recommendations) == 0 {
		outcome = OutcomeNoRoomsAvailable
		err = appErrors.Clone(appErrors.ErrNoRoomsAvailable, "")
		return nil, err
	}

	var replaced int64
	if req.Replace {
		replaced, err = s.recommendations.DeleteByChangeRequest(ctx, tx, changeRequest.ID)
		if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace recommendations")
			return nil, err
		}
	}

	insertStart := time.Now()
	count, err := s.recommendations.CreateBatch(ctx, tx, recommendations)
	s.metrics.ObserveDBQuery("recommendations.insert", time.Since(insertStart))
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist recommendations")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit recommendations")
		return nil, err
	}

	outcome = OutcomeCreated
	created = count
	s.invalidate(ctx, changeRequest.ID)
	s.logger.Info("recommendations generated",
		zap.String("change_request_id", changeRequest.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("created", count),
		zap.Int64("replaced", replaced),
	)

	return &dto.GenerateRecommendationsResponse{
		ChangeRequestID: changeRequest.ID,
		CreatedCount:    count,
		CandidateCount:  len(candidates),
		ReplacedCount:   replaced,
	}, nil
}

// List returns stored recommendations of a change request. An empty list is
// a valid answer.
func (s *RecommendationService) List(ctx context.Context, changeRequestID string) ([]dto.RecommendationView, error) {
	key := cache.RecommendationKey(changeRequestID)
	if s.cache != nil {
		var cached []dto.RecommendationView
		if s.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	if _, err := s.loadChangeRequest(ctx, nil, changeRequestID); err != nil {
		return nil, err
	}
	recommendations, err := s.recommendations.ListByChangeRequest(ctx, nil, changeRequestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recommendations")
	}

	views := make([]dto.RecommendationView, 0, len(recommendations))
	for _, rec := range recommendations {
		views = append(views, toRecommendationView(rec))
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, views)
	}
	return views, nil
}

// Clear removes every stored recommendation of a change request and returns
// how many rows were deleted. Clearing an empty set succeeds.
func (s *RecommendationService) Clear(ctx context.Context, changeRequestID string) (deleted int64, err error) {
	if s.tx == nil {
		return 0, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.recommendations.LockChangeRequest(ctx, tx, changeRequestID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock change request")
		return 0, err
	}
	if _, err = s.loadChangeRequest(ctx, tx, changeRequestID); err != nil {
		return 0, err
	}

	deleted, err = s.recommendations.DeleteByChangeRequest(ctx, tx, changeRequestID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete recommendations")
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit recommendation removal")
		return 0, err
	}

	s.invalidate(ctx, changeRequestID)
	s.logger.Info("recommendations cleared", zap.String("change_request_id", changeRequestID), zap.Int64("deleted", deleted))
	return deleted, nil
}

// Export renders the stored recommendations as a downloadable document.
func (s *RecommendationService) Export(ctx context.Context, changeRequestID, format string) (*dto.ExportFile, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}

	views, err := s.List(ctx, changeRequestID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("Recommendations for change request %s", changeRequestID),
		Headers: []string{"Day", "Time Slot", "Room", "Recommendation ID"},
		Rows:    make([]map[string]string, 0, len(views)),
	}
	for _, view := range views {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":               view.Day,
			"Time Slot":         view.SlotID,
			"Room":              view.RoomID,
			"Recommendation ID": view.ID,
		})
	}

	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render recommendations")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("recommendations-%s.%s", changeRequestID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *RecommendationService) loadChangeRequest(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ChangeRequest, error) {
	return findChangeRequest(ctx, s.changeRequests, exec, id)
}

func (s *RecommendationService) ensureUser(ctx context.Context, exec sqlx.ExtContext, id string) error {
	_, err := findUser(ctx, s.users, exec, id)
	return err
}

func findChangeRequest(ctx context.Context, reader changeRequestReader, exec sqlx.ExtContext, id string) (*models.ChangeRequest, error) {
	changeRequest, err := reader.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "change request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load change request")
	}
	return changeRequest, nil
}

func findUser(ctx context.Context, reader userReader, exec sqlx.ExtContext, id string) (*models.User, error) {
	user, err := reader.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("user %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *RecommendationService) commonAvailability(ctx context.Context, exec sqlx.ExtContext, changeRequestID, firstUser, secondUser string) ([]models.CandidateSlot, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("proposals.list", time.Since(start)) }()

	first, err := s.proposals.ListByUserAndChangeRequest(ctx, exec, firstUser, changeRequestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability proposals")
	}
	second, err := s.proposals.ListByUserAndChangeRequest(ctx, exec, secondUser, changeRequestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability proposals")
	}
	return IntersectProposals(first, second), nil
}

// materialize builds one recommendation per (candidate, eligible room) pair.
// Room lookups are cached per candidate key so duplicated candidates reuse
// the first answer and still produce their own rows.
func (s *RecommendationService) materialize(ctx context.Context, exec sqlx.ExtContext, changeRequest *models.ChangeRequest, candidates []models.CandidateSlot) ([]models.ChangeRecommendation, error) {
	rooms, err := s.rooms.ListAll(ctx, exec)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	reqs := ParseRoomRequirements(changeRequest.RoomRequirements)
	if !reqs.Empty() {
		s.logger.Debug("room requirements parsed",
			zap.String("change_request_id", changeRequest.ID),
			zap.Strings("rules", reqs.Names()),
		)
	}

	eligibleByKey := make(map[string][]models.Room, len(candidates))
	recommendations := make([]models.ChangeRecommendation, 0, len(candidates))
	for _, candidate := range candidates {
		eligible, seen := eligibleByKey[candidate.Key()]
		if !seen {
			eligible, err = s.filter.Eligible(ctx, exec, rooms, candidate, reqs)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room availability")
			}
			eligibleByKey[candidate.Key()] = eligible
		}
		for _, room := range eligible {
			recommendations = append(recommendations, models.ChangeRecommendation{
				ChangeRequestID:   changeRequest.ID,
				RecommendedDay:    candidate.Day,
				RecommendedSlotID: candidate.TimeSlotID,
				RecommendedRoomID: room.ID,
			})
		}
	}
	return recommendations, nil
}

func (s *RecommendationService) invalidate(ctx context.Context, changeRequestID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, cache.RecommendationKey(changeRequestID))
	}
}

func outcomeFor(err error) string {
	if errors.Is(err, appErrors.ErrNotFound) {
		return OutcomeNotFound
	}
	return OutcomeFailed
}

func toRecommendationView(rec models.ChangeRecommendation) dto.RecommendationView {
	return dto.RecommendationView{
		ID:              rec.ID,
		ChangeRequestID: rec.ChangeRequestID,
		Day:             rec.RecommendedDay.Format(models.DayLayout),
		SlotID:          rec.RecommendedSlotID,
		RoomID:          rec.RecommendedRoomID,
	}
}
