package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/reschedule-api/internal/models"
)

// TimeSlotRepository reads the seeded time slot table.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository builds repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// FindByID returns a time slot or sql.ErrNoRows.
func (r *TimeSlotRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimeSlot, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `SELECT id, start_time::text AS start_time, end_time::text AS end_time FROM time_slots WHERE id = $1`
	var slot models.TimeSlot
	if err := sqlx.GetContext(ctx, exec, &slot, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find time slot: %w", err)
	}
	return &slot, nil
}
