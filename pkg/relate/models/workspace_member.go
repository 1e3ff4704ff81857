package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkspaceRole represents a user's role within a workspace
type WorkspaceRole string

const (
	WorkspaceRoleOwner  WorkspaceRole = "OWNER"
	WorkspaceRoleAdmin  WorkspaceRole = "ADMIN"
	WorkspaceRoleMember WorkspaceRole = "MEMBER"
)

// WorkspaceMember is the many-to-many relation between users and
// workspaces. It is the sole mechanism granting a user visibility into
// a workspace's users: a User row with no membership here is invisible
// to that workspace. A user has exactly one role per workspace.
//
// Membership rows are removed physically (not soft-deleted) when a
// user is deleted from a workspace, so there is no DeletedAt column.
type WorkspaceMember struct {
	ID          string        `gorm:"type:uuid;primarykey" json:"id"`
	WorkspaceID string        `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_user" json:"workspace_id"`
	UserID      string        `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_user" json:"user_id"`
	Role        WorkspaceRole `gorm:"type:varchar(20);default:'MEMBER'" json:"role"`
	CreatedAt   time.Time     `json:"created_at"`

	// Relationships
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *WorkspaceMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
