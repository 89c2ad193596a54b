// internal/model/meeting.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MeetingTitleMaxLength       = 255
	MeetingDescriptionMaxLength = 4000
)

type Meeting struct {
	Base
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:varchar(4000);not null" json:"description"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	StartAt     time.Time `gorm:"not null;index" json:"start_at"`
	EndAt       time.Time `gorm:"not null" json:"end_at"`
}

type MeetingAttendee struct {
	Base
	MeetingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_meeting_attendees_meeting_user" json:"meeting_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_meeting_attendees_meeting_user" json:"user_id"`
}
