package dto

// SubmitProposalRequest declares that a user is free at (day, slot). UserID
// defaults to the caller.
type SubmitProposalRequest struct {
	UserID     string `json:"user_id"`
	Day        string `json:"day" validate:"required,datetime=2006-01-02"`
	TimeSlotID string `json:"time_slot_id" validate:"required"`
}

// ProposalView is the wire representation of an availability proposal.
type ProposalView struct {
	ID                       string `json:"id"`
	ChangeRequestID          string `json:"change_request_id"`
	UserID                   string `json:"user_id"`
	Day                      string `json:"day"`
	TimeSlotID               string `json:"time_slot_id"`
	AcceptedByLeader         bool   `json:"accepted_by_leader"`
	AcceptedByRepresentative bool   `json:"accepted_by_representative"`
}
