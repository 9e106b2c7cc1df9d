package model

import (
	"fmt"

	"github.com/google/uuid"
)

// CheckReplyParent applies the reply rules to a parent read inside the
// caller's write and returns the depth child must be stored with.
func CheckReplyParent(parent, child *Comment) (int, error) {
	if child.ParentID != nil && *child.ParentID == child.ID || parent != nil && parent.ID == child.ID {
		return 0, ErrParentCycle
	}
	if parent == nil || parent.IsDeleted() {
		return 0, ErrParentNotFound
	}
	if parent.PostID != child.PostID {
		return 0, ErrParentMismatch
	}
	if parent.Status != StatusApproved {
		return 0, ErrParentNotApproved
	}
	depth := parent.Depth + 1
	if depth >= MaxNestingLevel {
		return 0, ErrMaxNestingLevel
	}
	return depth, nil
}

// AncestorCount walks parent links starting at parentID and returns the
// number of ancestors a child of parentID would have. The walk stops after
// MaxNestingLevel+1 steps so a cycle or corrupt chain cannot loop forever.
func AncestorCount(parentID *uuid.UUID, lookup func(uuid.UUID) (*Comment, bool)) (int, error) {
	count := 0
	next := parentID
	for next != nil {
		if count > MaxNestingLevel {
			return count, ErrMaxNestingLevel
		}
		c, ok := lookup(*next)
		if !ok {
			return count, fmt.Errorf("%w: broken parent chain at %s", ErrInternal, *next)
		}
		count++
		next = c.ParentID
	}
	return count, nil
}
