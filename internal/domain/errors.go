// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Categories. Handlers map these to status codes; every specific error
// below wraps exactly one of them.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrUnprocessable = errors.New("unprocessable")
	ErrInternal      = errors.New("internal error")
	ErrUnauthorized  = errors.New("unauthorized")
)

var (
	// User-related errors
	ErrUserNotFound         = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailAlreadyExists   = fmt.Errorf("%w: email already exists", ErrBadRequest)
	ErrInvalidCredentials   = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrPasswordTooWeak      = fmt.Errorf("%w: password must be at least 8 characters", ErrUnprocessable)
	ErrPasswordHasEmail     = fmt.Errorf("%w: password must not contain the e-mail", ErrUnprocessable)
	ErrUserInactive         = fmt.Errorf("%w: user is inactive", ErrUnauthorized)
	ErrUserStillMember      = fmt.Errorf("%w: cannot delete a user who still belongs to a company", ErrForbidden)
	ErrSuperuserRequired    = fmt.Errorf("%w: superuser access required", ErrForbidden)
	ErrCompanyAdminRequired = fmt.Errorf("%w: you must be an admin of this company or a superuser", ErrForbidden)

	// Company-related errors
	ErrCompanyNotFound      = fmt.Errorf("%w: company not found", ErrNotFound)
	ErrCompanyNameExists    = fmt.Errorf("%w: company name already exists", ErrBadRequest)
	ErrDepartmentNotFound   = fmt.Errorf("%w: department not found in company", ErrNotFound)
	ErrDepartmentNameExists = fmt.Errorf("%w: department name already exists in company", ErrBadRequest)
	ErrDepartmentCycle      = fmt.Errorf("%w: department cannot be moved under itself or its descendant", ErrBadRequest)
	ErrNewsNotFound         = fmt.Errorf("%w: news not found in company", ErrNotFound)
	ErrNewsInPast           = fmt.Errorf("%w: news cannot be published in the past", ErrUnprocessable)

	// Membership-related errors
	ErrMembershipNotFound = fmt.Errorf("%w: user is not a member of this company", ErrNotFound)
	ErrMembershipExists   = fmt.Errorf("%w: user is already a member of this company", ErrBadRequest)
	ErrLastAdmin          = fmt.Errorf("%w: cannot remove the only administrator", ErrBadRequest)
	ErrSelfManager        = fmt.Errorf("%w: cannot assign a member as their own manager", ErrBadRequest)
	ErrManagerRoleNeeded  = fmt.Errorf("%w: manager must be a manager or admin of the company", ErrBadRequest)

	// Invite-related errors
	ErrInviteNotFound      = fmt.Errorf("%w: invite not found or expired", ErrNotFound)
	ErrInviteEmailMismatch = fmt.Errorf("%w: invite is not addressed to this account", ErrForbidden)
	ErrInviteCodeExhausted = fmt.Errorf("%w: could not generate a unique invite code", ErrInternal)
	ErrInvalidRole         = fmt.Errorf("%w: role must be one of user, manager, admin", ErrUnprocessable)

	// Task-related errors
	ErrTaskNotFound       = fmt.Errorf("%w: task not found in company", ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("%w: comment not found in task", ErrNotFound)
	ErrOnlySubordinates   = fmt.Errorf("%w: tasks can only be assigned to subordinates", ErrForbidden)
	ErrExecutorOnlyStatus = fmt.Errorf("%w: the executor may only change the status", ErrForbidden)
	ErrTaskDates          = fmt.Errorf("%w: due date cannot be before start date", ErrUnprocessable)
	ErrBothOrNoneDates    = fmt.Errorf("%w: both dates must be given, or neither", ErrUnprocessable)
	ErrTaskNotDone        = fmt.Errorf("%w: only finished tasks can be evaluated", ErrBadRequest)
	ErrAlreadyRated       = fmt.Errorf("%w: task has already been evaluated", ErrBadRequest)

	// Meeting-related errors
	ErrMeetingNotFound  = fmt.Errorf("%w: meeting not found in company", ErrNotFound)
	ErrAttendeeNotFound = fmt.Errorf("%w: user does not attend this meeting", ErrNotFound)
	ErrMeetingDates     = fmt.Errorf("%w: end time must be after start time", ErrUnprocessable)
	ErrScheduleConflict = fmt.Errorf("%w: user already has a meeting at this time", ErrBadRequest)
	ErrAlreadyAttending = fmt.Errorf("%w: user already attends this meeting", ErrBadRequest)
	ErrInvalidScope     = fmt.Errorf("%w: scope must be one of day, month, year", ErrUnprocessable)
	ErrInvalidPeriod    = fmt.Errorf("%w: year must be 1000..9999 and quarter 1..4", ErrUnprocessable)
	ErrInvalidInput     = fmt.Errorf("%w: invalid input", ErrUnprocessable)
)

// Message returns the human readable part of a domain error, without the
// category prefix.
func Message(err error) string {
	msg := err.Error()
	for _, cat := range []error{ErrNotFound, ErrForbidden, ErrBadRequest, ErrUnprocessable, ErrInternal, ErrUnauthorized} {
		prefix := cat.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
