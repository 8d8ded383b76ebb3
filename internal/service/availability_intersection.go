package service

import (
	"github.com/samber/lo"

	"github.com/noah-isme/reschedule-api/internal/models"
)

// IntersectProposals pairs every proposal of first with every proposal of
// second and emits a candidate for each pair sharing the same time slot and
// calendar day. Duplicate proposals yield duplicate candidates.
func IntersectProposals(first, second []models.AvailabilityProposal) []models.CandidateSlot {
	if len(first) == 0 || len(second) == 0 {
		return []models.CandidateSlot{}
	}
	return lo.FlatMap(first, func(a models.AvailabilityProposal, _ int) []models.CandidateSlot {
		matches := lo.Filter(second, func(b models.AvailabilityProposal, _ int) bool {
			return sameSlot(a, b)
		})
		return lo.Map(matches, func(_ models.AvailabilityProposal, _ int) models.CandidateSlot {
			return models.CandidateSlot{TimeSlotID: a.TimeSlotID, Day: models.TruncateDay(a.Day)}
		})
	})
}

func sameSlot(a, b models.AvailabilityProposal) bool {
	return a.TimeSlotID == b.TimeSlotID && models.TruncateDay(a.Day).Equal(models.TruncateDay(b.Day))
}
