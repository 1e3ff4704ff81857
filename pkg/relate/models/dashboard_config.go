package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DashboardConfig stores one user's dashboard layout for one workspace.
// Items, layout, and settings are free-form documents owned by the
// frontend; the backend only round-trips them.
type DashboardConfig struct {
	ID          string `gorm:"type:uuid;primarykey" json:"id"`
	WorkspaceID string `gorm:"type:uuid;not null;uniqueIndex:idx_dashboard_workspace_user" json:"workspace_id"`
	UserID      string `gorm:"type:uuid;not null;uniqueIndex:idx_dashboard_workspace_user" json:"user_id"`
	Version     string `gorm:"default:'1.0'" json:"version"`

	UserDetails datatypes.JSON `json:"user_details"`
	Items       datatypes.JSON `json:"items"`
	Layout      datatypes.JSON `json:"layout"`
	Settings    datatypes.JSON `json:"settings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *DashboardConfig) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
