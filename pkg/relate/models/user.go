package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStatus represents a user's account state
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInvited  UserStatus = "INVITED"
	UserStatusDisabled UserStatus = "DISABLED"
)

// User is a global identity, not owned by any workspace. The same row
// can be a member of many workspaces through WorkspaceMember.
// Unlike the scoped CRM entities, User carries no DeletedBy column.
type User struct {
	ID                   string         `gorm:"type:uuid;primarykey" json:"id"`
	ExternalAuthID       *string        `gorm:"uniqueIndex" json:"external_auth_id,omitempty"` // provider "sub"
	ExternalAuthProvider *string        `json:"external_auth_provider,omitempty"`              // e.g. "auth0", "cognito"
	Email                *string        `gorm:"index" json:"email,omitempty"`
	FullName             string         `gorm:"not null" json:"full_name"`
	AvatarURL            *string        `json:"avatar_url,omitempty"`
	Status               UserStatus     `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
