// internal/model/company.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	CompanyNameMaxLength    = 255
	DepartmentNameMaxLength = 255
	NewsTitleMaxLength      = 255
	NewsBodyMaxLength       = 4000
)

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known company roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type Company struct {
	Base
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
}

type Department struct {
	Base
	Name      string     `gorm:"type:varchar(255);not null;uniqueIndex:ux_departments_company_name" json:"name"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:ux_departments_company_name" json:"company_id"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
}

// Membership links a user to a company with a role.
type Membership struct {
	Base
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_memberships_user_company" json:"user_id"`
	CompanyID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:ux_memberships_user_company" json:"company_id"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;index" json:"department_id,omitempty"`
	ManagerID    *uuid.UUID `gorm:"type:uuid;index" json:"manager_id,omitempty"`
	Role         Role       `gorm:"type:varchar(16);not null;default:user" json:"role"`
}

type CompanyNews struct {
	Base
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Body        string    `gorm:"type:varchar(4000);not null" json:"body"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	PublishedAt time.Time `gorm:"not null;index" json:"published_at"`
}

// TableName keeps the plural form stable across naming strategies.
func (CompanyNews) TableName() string {
	return "company_news"
}
