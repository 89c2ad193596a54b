// Package policy holds the role checks every company-scoped operation runs
// before touching the store. All functions are pure: the caller resolves the
// actor's membership first and passes nil when the actor is not a member.
package policy

import (
	"fmt"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/google/uuid"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID      uuid.UUID
	Email       string
	IsSuperuser bool
}

// Decision is the outcome of a single check.
type Decision struct {
	Allowed bool
	Reason  string
	// Err is the category sentinel the denial maps to.
	Err error
}

// Error returns nil for an allowed decision, otherwise the denial wrapped
// with its reason.
func (d Decision) Error() error {
	if d.Allowed {
		return nil
	}
	if d.Err == nil {
		return fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
	}
	return d.Err
}

func allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(err error) Decision {
	return Decision{Allowed: false, Reason: domain.Message(err), Err: err}
}

func RequireAdminOrSuperuser(actor Actor, m *model.Membership) Decision {
	if actor.IsSuperuser {
		return allow("superuser")
	}
	if m != nil && m.Role == model.RoleAdmin {
		return allow("company admin")
	}
	return deny(domain.ErrCompanyAdminRequired)
}

func RequireMemberOrSuperuser(actor Actor, m *model.Membership) Decision {
	if actor.IsSuperuser {
		return allow("superuser")
	}
	if m != nil {
		return allow("company member")
	}
	return deny(errNotMember)
}

func RequireManagerAdminOrSuperuser(actor Actor, m *model.Membership) Decision {
	if actor.IsSuperuser {
		return allow("superuser")
	}
	if m != nil && (m.Role == model.RoleManager || m.Role == model.RoleAdmin) {
		return allow("company " + string(m.Role))
	}
	return deny(errManagerRequired)
}

// RequireLastAdminSafe refuses to demote or remove m when it is the only
// admin left in its company.
func RequireLastAdminSafe(m *model.Membership, adminCount int64) Decision {
	if m != nil && m.Role == model.RoleAdmin && adminCount <= 1 {
		return deny(domain.ErrLastAdmin)
	}
	return allow("company keeps an admin")
}

// RequireManagerOfSubordinate checks that the executor reports to manager.
// Admins manage everyone.
func RequireManagerOfSubordinate(manager, executor *model.Membership) Decision {
	if manager == nil || executor == nil {
		return deny(domain.ErrOnlySubordinates)
	}
	if manager.Role == model.RoleAdmin {
		return allow("company admin")
	}
	if manager.Role == model.RoleManager && executor.ManagerID != nil && *executor.ManagerID == manager.UserID {
		return allow("direct manager")
	}
	return deny(domain.ErrOnlySubordinates)
}

func RequireNotSelfManager(target *model.Membership, managerID *uuid.UUID) Decision {
	if target != nil && managerID != nil && *managerID == target.UserID {
		return deny(domain.ErrSelfManager)
	}
	return allow("manager differs from member")
}

var (
	errNotMember       = fmt.Errorf("%w: you are not a member of this company", domain.ErrForbidden)
	errManagerRequired = fmt.Errorf("%w: you must be a manager or admin of this company", domain.ErrForbidden)
)
