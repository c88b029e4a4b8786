package chore

import (
	"iter"

	"github.com/dukerupert/chorely/internal/model"
)

// IsAssignedTo reports whether userID currently owes c. Alternating chores
// carry their current turn in AssignedUserID, so one check covers both
// assignment types.
func IsAssignedTo(c model.Chore, userID int64) bool {
	return c.IsActive && c.AssignedUserID != nil && *c.AssignedUserID == userID
}

// SelectForUser yields the chores in chores that userID owes, in input order.
// The sequence reads chores on every iteration and can be ranged over again.
func SelectForUser(chores []model.Chore, userID int64) iter.Seq[model.Chore] {
	return func(yield func(model.Chore) bool) {
		for _, c := range chores {
			if !IsAssignedTo(c, userID) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}
