// internal/model/base.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the primary key and bookkeeping timestamps shared by every table.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id so inserts work without a database-side default.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Company{},
		&Department{},
		&Membership{},
		&Invite{},
		&CompanyNews{},
		&Task{},
		&TaskComment{},
		&Rating{},
		&Meeting{},
		&MeetingAttendee{},
		&AuthzAuditLog{},
	}
}
