package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/reschedule-api/internal/models"
)

// AvailabilityRepository stores and reads availability proposals.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository builds repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const proposalColumns = `id, change_request_id, user_id, day, time_slot_id, accepted_by_leader, accepted_by_representative`

// ListByUserAndChangeRequest returns every proposal a user made for a change
// request. Duplicate (day, slot) rows are returned as stored.
func (r *AvailabilityRepository) ListByUserAndChangeRequest(ctx context.Context, exec sqlx.ExtContext, userID, changeRequestID string) ([]models.AvailabilityProposal, error) {
	query := `SELECT ` + proposalColumns + `
FROM availability_proposals WHERE user_id = $1 AND change_request_id = $2 ORDER BY day ASC, time_slot_id ASC`
	var proposals []models.AvailabilityProposal
	if err := sqlx.SelectContext(ctx, r.exec(exec), &proposals, query, userID, changeRequestID); err != nil {
		return nil, fmt.Errorf("list availability proposals: %w", err)
	}
	return proposals, nil
}

// ListByChangeRequest returns the proposals of every user for a change
// request. A non-empty userID narrows the result to that user.
func (r *AvailabilityRepository) ListByChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID, userID string) ([]models.AvailabilityProposal, error) {
	query := `SELECT ` + proposalColumns + `
FROM availability_proposals WHERE change_request_id = $1 AND ($2 = '' OR user_id = $2)
ORDER BY day ASC, time_slot_id ASC, user_id ASC`
	proposals := []models.AvailabilityProposal{}
	if err := sqlx.SelectContext(ctx, r.exec(exec), &proposals, query, changeRequestID, userID); err != nil {
		return nil, fmt.Errorf("list change request proposals: %w", err)
	}
	return proposals, nil
}

// Create inserts one proposal. Duplicates of an existing (user, day, slot)
// are stored as separate rows.
func (r *AvailabilityRepository) Create(ctx context.Context, exec sqlx.ExtContext, proposal *models.AvailabilityProposal) error {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	const query = `INSERT INTO availability_proposals (id, change_request_id, user_id, day, time_slot_id, accepted_by_leader, accepted_by_representative)
VALUES (:id, :change_request_id, :user_id, :day, :time_slot_id, :accepted_by_leader, :accepted_by_representative)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, proposal); err != nil {
		return fmt.Errorf("create availability proposal: %w", err)
	}
	return nil
}
