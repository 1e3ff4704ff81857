package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkspaceStatus represents the lifecycle state of a workspace
type WorkspaceStatus string

const (
	WorkspaceStatusActive    WorkspaceStatus = "ACTIVE"
	WorkspaceStatusSuspended WorkspaceStatus = "SUSPENDED"
)

// Workspace is the tenancy root. Every scoped entity (Company, Contact,
// Deal, Activity) carries a WorkspaceID pointing at one of these rows.
type Workspace struct {
	ID        string          `gorm:"type:uuid;primarykey" json:"id"`
	Name      string          `gorm:"not null;index" json:"name"`
	Status    WorkspaceStatus `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
