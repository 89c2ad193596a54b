// internal/model/user.go
package model

import "strings"

type User struct {
	Base
	Email        string `gorm:"type:varchar(320);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:text;not null" json:"-"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser  bool   `gorm:"not null;default:false" json:"is_superuser"`
}

// NormalizeEmail is the single comparison form for e-mail addresses.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
