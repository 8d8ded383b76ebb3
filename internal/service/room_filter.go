package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/noah-isme/reschedule-api/internal/models"
)

type roomAvailabilityReader interface {
	ListUnavailableIDs(ctx context.Context, exec sqlx.ExtContext, day time.Time) ([]string, error)
	ListOccupiedIDs(ctx context.Context, exec sqlx.ExtContext, day time.Time, timeSlotID string) ([]string, error)
}

// RoomFilter narrows a room catalogue down to the rooms usable at one
// candidate slot.
type RoomFilter struct {
	rooms   roomAvailabilityReader
	metrics *MetricsService
}

// NewRoomFilter constructs a RoomFilter.
func NewRoomFilter(rooms roomAvailabilityReader, metrics *MetricsService) *RoomFilter {
	return &RoomFilter{rooms: rooms, metrics: metrics}
}

// Eligible returns the rooms that are not blocked by an unavailability on the
// candidate day, not booked by a live course event at the candidate slot and
// satisfy every requirement. Input order is preserved.
func (f *RoomFilter) Eligible(ctx context.Context, exec sqlx.ExtContext, rooms []models.Room, slot models.CandidateSlot, reqs RoomRequirements) ([]models.Room, error) {
	if len(rooms) == 0 {
		return []models.Room{}, nil
	}

	start := time.Now()
	unavailable, err := f.rooms.ListUnavailableIDs(ctx, exec, slot.Day)
	f.metrics.ObserveDBQuery("rooms.unavailable", time.Since(start))
	if err != nil {
		return nil, err
	}

	start = time.Now()
	occupied, err := f.rooms.ListOccupiedIDs(ctx, exec, slot.Day, slot.TimeSlotID)
	f.metrics.ObserveDBQuery("rooms.occupied", time.Since(start))
	if err != nil {
		return nil, err
	}

	blocked := lo.Associate(append(unavailable, occupied...), func(id string) (string, struct{}) {
		return id, struct{}{}
	})
	return lo.Filter(rooms, func(room models.Room, _ int) bool {
		if _, taken := blocked[room.ID]; taken {
			return false
		}
		return reqs.Allows(room)
	}), nil
}
