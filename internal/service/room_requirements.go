package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/noah-isme/reschedule-api/internal/models"
)

// RoomPredicate reports whether a room satisfies one requirement.
type RoomPredicate func(room models.Room) bool

type roomRule struct {
	name  string
	allow RoomPredicate
}

// RoomRequirements is an ordered set of predicates derived from the free-text
// requirements of a change request. The zero value accepts every room.
type RoomRequirements struct {
	rules []roomRule
}

var capacityPattern = regexp.MustCompile(`capacity\s*>\s*(\d+)`)

// ParseRoomRequirements recognises a small set of keywords in text. Anything
// it does not recognise is ignored.
func ParseRoomRequirements(text *string) RoomRequirements {
	if text == nil {
		return RoomRequirements{}
	}
	lowered := strings.ToLower(*text)

	var reqs RoomRequirements
	if strings.Contains(lowered, "projector") {
		reqs.rules = append(reqs.rules, roomRule{name: "projector", allow: hasProjector})
	}
	if strings.Contains(lowered, "capacity") {
		if match := capacityPattern.FindStringSubmatch(lowered); match != nil {
			if minimum, err := strconv.Atoi(match[1]); err == nil {
				reqs.rules = append(reqs.rules, roomRule{name: "capacity", allow: minCapacity(minimum)})
			}
		}
	}
	return reqs
}

// Allows reports whether room passes every rule.
func (r RoomRequirements) Allows(room models.Room) bool {
	return lo.EveryBy(r.rules, func(rule roomRule) bool {
		return rule.allow(room)
	})
}

// Names lists the active rules in evaluation order.
func (r RoomRequirements) Names() []string {
	return lo.Map(r.rules, func(rule roomRule, _ int) string { return rule.name })
}

// Empty reports whether no rule is active.
func (r RoomRequirements) Empty() bool {
	return len(r.rules) == 0
}

func hasProjector(room models.Room) bool {
	return strings.Contains(strings.ToLower(room.EquipmentText()), "projector")
}

// minCapacity treats the parsed bound as inclusive.
func minCapacity(minimum int) RoomPredicate {
	return func(room models.Room) bool {
		return room.Capacity >= minimum
	}
}
