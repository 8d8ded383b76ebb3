package models

import "time"

// ChangeRequestStatus tracks the lifecycle of a reschedule request.
type ChangeRequestStatus string

const (
	ChangeRequestStatusPending  ChangeRequestStatus = "PENDING"
	ChangeRequestStatusAccepted ChangeRequestStatus = "ACCEPTED"
	ChangeRequestStatusRejected ChangeRequestStatus = "REJECTED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s ChangeRequestStatus) IsTerminal() bool {
	return s == ChangeRequestStatusAccepted || s == ChangeRequestStatusRejected
}

// ChangeRequest asks to move exactly one course event.
type ChangeRequest struct {
	ID               string              `db:"id" json:"id"`
	CourseEventID    string              `db:"course_event_id" json:"course_event_id"`
	InitiatorID      string              `db:"initiator_id" json:"initiator_id"`
	Status           ChangeRequestStatus `db:"status" json:"status"`
	Reason           string              `db:"reason" json:"reason"`
	RoomRequirements *string             `db:"room_requirements" json:"room_requirements,omitempty"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
}
