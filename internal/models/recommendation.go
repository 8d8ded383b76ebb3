package models

import "time"

// ChangeRecommendation is one (day, slot, room) suggestion for a change request.
// Rows are only ever inserted or bulk-deleted.
type ChangeRecommendation struct {
	ID                string    `db:"id" json:"id"`
	ChangeRequestID   string    `db:"change_request_id" json:"change_request_id"`
	RecommendedDay    time.Time `db:"recommended_day" json:"recommended_day"`
	RecommendedSlotID string    `db:"recommended_slot_id" json:"recommended_slot_id"`
	RecommendedRoomID string    `db:"recommended_room_id" json:"recommended_room_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
