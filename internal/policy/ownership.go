package policy

import (
	"fmt"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/google/uuid"
)

// TaskFieldStatus is the only field an executor may change.
const TaskFieldStatus = "status"

var errNoFullAccess = fmt.Errorf("%w: only the author or a company admin can do this", domain.ErrForbidden)

// HasFullAccess grants authors, company admins and superusers full control
// over an authored object. Authors lose it when they leave the company.
func HasFullAccess(actor Actor, authorID uuid.UUID, m *model.Membership) Decision {
	switch {
	case actor.IsSuperuser:
		return allow("superuser")
	case m == nil:
		return deny(errNotMember)
	case actor.UserID == authorID:
		return allow("author")
	case m != nil && m.Role == model.RoleAdmin:
		return allow("company admin")
	}
	return deny(errNoFullAccess)
}

// CanUpdateTask lets full-access actors change anything and the executor
// change only the status.
func CanUpdateTask(actor Actor, task *model.Task, m *model.Membership, changedFields []string) Decision {
	if d := HasFullAccess(actor, task.AuthorID, m); d.Allowed || m == nil {
		return d
	}
	if actor.UserID != task.ExecutorID {
		return deny(errNoFullAccess)
	}
	for _, f := range changedFields {
		if f != TaskFieldStatus {
			return deny(domain.ErrExecutorOnlyStatus)
		}
	}
	return allow("executor status change")
}

func CanDeleteTask(actor Actor, task *model.Task, m *model.Membership) Decision {
	return HasFullAccess(actor, task.AuthorID, m)
}

func CanManageComment(actor Actor, comment *model.TaskComment, m *model.Membership) Decision {
	return HasFullAccess(actor, comment.AuthorID, m)
}

func CanManageMeeting(actor Actor, meeting *model.Meeting, m *model.Membership) Decision {
	return HasFullAccess(actor, meeting.AuthorID, m)
}

// CanRemoveAttendee lets attendees leave on their own in addition to full access.
func CanRemoveAttendee(actor Actor, meeting *model.Meeting, m *model.Membership, attendeeID uuid.UUID) Decision {
	if m != nil && actor.UserID == attendeeID {
		return allow("attendee leaving")
	}
	return CanManageMeeting(actor, meeting, m)
}
