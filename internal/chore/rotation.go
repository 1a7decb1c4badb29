package chore

import "github.com/chippn/chippn/internal/model"

// NextAssignee selects the rotation target for a rotating chore: members are
// ordered by join time, and the turn passes to the member after the previous
// assignee, wrapping around. With no previous assignee the earliest-joined
// member starts.
func NextAssignee(members []model.MemberWithUser, previousAssignee int64) (int64, bool) {
	if len(members) == 0 {
		return 0, false
	}
	if previousAssignee == 0 {
		return members[0].UserID, true
	}
	for i, m := range members {
		if m.UserID == previousAssignee {
			return members[(i+1)%len(members)].UserID, true
		}
	}
	// Previous assignee left the household; restart the rotation.
	return members[0].UserID, true
}
