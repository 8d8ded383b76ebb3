package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/reschedule-api/internal/models"
)

// ChangeRequestRepository reads change requests.
type ChangeRequestRepository struct {
	db *sqlx.DB
}

// NewChangeRequestRepository builds repository.
func NewChangeRequestRepository(db *sqlx.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

func (r *ChangeRequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID loads a change request. It returns sql.ErrNoRows when absent.
func (r *ChangeRequestRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ChangeRequest, error) {
	const query = `SELECT id, course_event_id, initiator_id, status, reason, room_requirements, created_at
FROM change_requests WHERE id = $1`
	var changeRequest models.ChangeRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &changeRequest, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find change request: %w", err)
	}
	return &changeRequest, nil
}
