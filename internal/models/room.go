package models

import "time"

// RoomType enumerates the kinds of rooms.
type RoomType string

const (
	RoomTypeLaboratory     RoomType = "LABORATORY"
	RoomTypeLectureHall    RoomType = "LECTURE_HALL"
	RoomTypeSeminarRoom    RoomType = "SEMINAR_ROOM"
	RoomTypeConferenceRoom RoomType = "CONFERENCE_ROOM"
)

// Room is a bookable teaching space.
type Room struct {
	ID        string   `db:"id" json:"id"`
	Name      string   `db:"name" json:"name"`
	Capacity  int      `db:"capacity" json:"capacity"`
	Type      RoomType `db:"type" json:"type"`
	Equipment *string  `db:"equipment" json:"equipment,omitempty"`
}

// EquipmentText returns the equipment description or an empty string.
func (r Room) EquipmentText() string {
	if r.Equipment == nil {
		return ""
	}
	return *r.Equipment
}

// RoomUnavailability blocks a room for the closed interval [StartDatetime, EndDatetime].
type RoomUnavailability struct {
	ID            string    `db:"id" json:"id"`
	RoomID        string    `db:"room_id" json:"room_id"`
	StartDatetime time.Time `db:"start_datetime" json:"start_datetime"`
	EndDatetime   time.Time `db:"end_datetime" json:"end_datetime"`
	Reason        *string   `db:"reason" json:"reason,omitempty"`
}
