// internal/model/invite.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const InviteCodeMaxLength = 16

type Invite struct {
	Base
	Code         string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	DepartmentID *uuid.UUID `gorm:"type:uuid" json:"department_id,omitempty"`
	ManagerID    *uuid.UUID `gorm:"type:uuid" json:"manager_id,omitempty"`
	Email        string     `gorm:"type:varchar(320);not null" json:"email"`
	Role         Role       `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedBy    uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	ExpiresAt    time.Time  `gorm:"not null;index" json:"expires_at"`
}

// Expired reports whether the invite can no longer be accepted at now.
func (i *Invite) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
