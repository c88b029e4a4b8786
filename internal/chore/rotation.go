package chore

// NextAssignee returns who takes an alternating chore after current.
// members is the group's user IDs in join order. The turn passes to the
// member after current, wrapping around; if current is nil or no longer a
// member, the first member takes it. It returns nil for an empty group.
func NextAssignee(members []int64, current *int64) *int64 {
	if len(members) == 0 {
		return nil
	}
	next := members[0]
	if current != nil {
		for i, id := range members {
			if id == *current {
				next = members[(i+1)%len(members)]
				break
			}
		}
	}
	return &next
}

// HandoffAssignee returns who takes over leaver's alternating chores when
// leaver departs. members must still include leaver. It returns nil when
// leaver is the only member.
func HandoffAssignee(members []int64, leaver int64) *int64 {
	next := NextAssignee(members, &leaver)
	if next == nil || *next == leaver {
		return nil
	}
	return next
}
