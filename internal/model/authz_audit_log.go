// internal/model/authz_audit_log.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// AuthzAuditLog records one authorization decision or relationship change.
type AuthzAuditLog struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index"`
	ActionType  string    `json:"action_type" gorm:"type:varchar(64);not null"`
	Result      *bool     `json:"result"`
	EntityType  string    `json:"entity_type" gorm:"type:varchar(64)"`
	EntityID    string    `json:"entity_id" gorm:"type:varchar(64);index"`
	SubjectType string    `json:"subject_type" gorm:"type:varchar(64)"`
	SubjectID   string    `json:"subject_id" gorm:"type:varchar(64);index"`
	Permission  string    `json:"permission" gorm:"type:varchar(128)"`
	Reason      string    `json:"reason" gorm:"type:text"`
	Context     JSONMap   `json:"context"`
	RequestID   string    `json:"request_id" gorm:"type:varchar(64)"`
	ClientIP    string    `json:"client_ip" gorm:"type:varchar(64)"`
	UserAgent   string    `json:"user_agent" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AuthzAuditLog) TableName() string {
	return "authz_audit_logs"
}

func (l *AuthzAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = tx.NowFunc().UTC()
	}
	return nil
}

// JSONMap is a generic map stored as jsonb on postgres and text elsewhere.
type JSONMap map[string]any

func (JSONMap) GormDataType() string {
	return "json"
}

func (JSONMap) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion failed: failed to decode JSON map")
	}

	return json.Unmarshal(bytes, m)
}

// Audit action types.
const (
	ActionPolicyCheck      = "policy_check"
	ActionInviteAccept     = "invite_accept"
	ActionInviteSweep      = "invite_sweep"
	ActionRelationCreate   = "relation_create"
	ActionRelationDelete   = "relation_delete"
	ActionMembershipChange = "membership_change"
)
