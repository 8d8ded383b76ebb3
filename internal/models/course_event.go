package models

import "time"

// CourseEvent is one scheduled occurrence of a course.
type CourseEvent struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	RoomID     *string   `db:"room_id" json:"room_id,omitempty"`
	Day        time.Time `db:"day" json:"day"`
	TimeSlotID string    `db:"time_slot_id" json:"time_slot_id"`
	Canceled   bool      `db:"canceled" json:"canceled"`
}
