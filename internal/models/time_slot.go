package models

// TimeSlot is an institution-wide (start, end) pair. Seeded once and never mutated.
type TimeSlot struct {
	ID        string `db:"id" json:"id"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}
