package models

import "time"

// DayLayout is the wire and storage layout of a calendar day.
const DayLayout = "2006-01-02"

// AvailabilityProposal states that a user is free at (day, slot) for a change request.
type AvailabilityProposal struct {
	ID                       string    `db:"id" json:"id"`
	ChangeRequestID          string    `db:"change_request_id" json:"change_request_id"`
	UserID                   string    `db:"user_id" json:"user_id"`
	Day                      time.Time `db:"day" json:"day"`
	TimeSlotID               string    `db:"time_slot_id" json:"time_slot_id"`
	AcceptedByLeader         bool      `db:"accepted_by_leader" json:"accepted_by_leader"`
	AcceptedByRepresentative bool      `db:"accepted_by_representative" json:"accepted_by_representative"`
}

// CandidateSlot is a (slot, day) pair both parties proposed.
type CandidateSlot struct {
	TimeSlotID string    `json:"time_slot_id"`
	Day        time.Time `json:"day"`
}

// Key identifies the pair independent of the time-of-day component of Day.
func (c CandidateSlot) Key() string {
	return c.TimeSlotID + "@" + c.Day.Format(DayLayout)
}

// TruncateDay strips the clock and location from t, keeping the calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
