package dto

// GenerateRecommendationsRequest names the two negotiating parties.
type GenerateRecommendationsRequest struct {
	User1ID string `json:"user1Id" validate:"required"`
	User2ID string `json:"user2Id" validate:"required,nefield=User1ID"`
	// Replace drops previously stored recommendations inside the same
	// transaction before inserting the new ones.
	Replace bool `json:"replace"`
}

// GenerateRecommendationsResponse reports what one generation run persisted.
type GenerateRecommendationsResponse struct {
	ChangeRequestID string `json:"changeRequestId"`
	CreatedCount    int    `json:"createdCount"`
	CandidateCount  int    `json:"candidateCount"`
	ReplacedCount   int64  `json:"replacedCount,omitempty"`
}

// RecommendationView is the wire representation of a stored recommendation.
type RecommendationView struct {
	ID              string `json:"id"`
	ChangeRequestID string `json:"changeRequestId"`
	Day             string `json:"recommendedDay"`
	SlotID          string `json:"recommendedSlotId"`
	RoomID          string `json:"recommendedRoomId"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}
