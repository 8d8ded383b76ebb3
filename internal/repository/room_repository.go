package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/reschedule-api/internal/models"
)

// RoomRepository answers room catalogue and occupancy questions.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository builds repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListAll returns every room ordered by name.
func (r *RoomRepository) ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.Room, error) {
	const query = `SELECT id, name, capacity, type, equipment FROM rooms ORDER BY name ASC, id ASC`
	var rooms []models.Room
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListUnavailableIDs returns rooms with an unavailability interval covering day.
// Both interval ends are inclusive and compared as UTC calendar days.
func (r *RoomRepository) ListUnavailableIDs(ctx context.Context, exec sqlx.ExtContext, day time.Time) ([]string, error) {
	const query = `SELECT DISTINCT room_id FROM room_unavailabilities
WHERE (start_datetime AT TIME ZONE 'UTC')::date <= $1::date AND (end_datetime AT TIME ZONE 'UTC')::date >= $1::date`
	var ids []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, day.Format(models.DayLayout)); err != nil {
		return nil, fmt.Errorf("list unavailable rooms: %w", err)
	}
	return ids, nil
}

// ListOccupiedIDs returns rooms booked by a non-canceled course event at (day, slot).
func (r *RoomRepository) ListOccupiedIDs(ctx context.Context, exec sqlx.ExtContext, day time.Time, timeSlotID string) ([]string, error) {
	const query = `SELECT DISTINCT room_id FROM course_events
WHERE day = $1::date AND time_slot_id = $2 AND canceled = FALSE AND room_id IS NOT NULL`
	var ids []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, day.Format(models.DayLayout), timeSlotID); err != nil {
		return nil, fmt.Errorf("list occupied rooms: %w", err)
	}
	return ids, nil
}
