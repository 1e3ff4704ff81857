package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityType classifies an activity entry
type ActivityType string

const (
	ActivityTypeNote    ActivityType = "NOTE"
	ActivityTypeCall    ActivityType = "CALL"
	ActivityTypeEmail   ActivityType = "EMAIL"
	ActivityTypeMeeting ActivityType = "MEETING"
	ActivityTypeTask    ActivityType = "TASK"
)

// ActivityStatus represents whether an activity is still pending
type ActivityStatus string

const (
	ActivityStatusOpen ActivityStatus = "OPEN"
	ActivityStatusDone ActivityStatus = "DONE"
)

// Activity is a workspace-scoped note/task record. Every activity must
// be linked to at least one of a deal, a company, or a contact in the
// same workspace.
type Activity struct {
	ID          string         `gorm:"type:uuid;primarykey" json:"id"`
	WorkspaceID string         `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Type        ActivityType   `gorm:"type:varchar(10);not null;index" json:"type"`
	Status      ActivityStatus `gorm:"type:varchar(10);default:'OPEN';index" json:"status"`
	Title       string         `gorm:"not null" json:"title"`
	Body        *string        `json:"body,omitempty"`
	DueAt       *time.Time     `gorm:"index" json:"due_at,omitempty"`
	Priority    *string        `json:"priority,omitempty"`

	DealID    *string `gorm:"type:uuid;index" json:"deal_id,omitempty"`
	CompanyID *string `gorm:"type:uuid;index" json:"company_id,omitempty"`
	ContactID *string `gorm:"type:uuid;index" json:"contact_id,omitempty"`

	OwnerID   *string        `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	CreatedBy *string        `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *string        `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *string        `gorm:"type:uuid" json:"-"`

	// Relationships
	Deal    *Deal    `gorm:"foreignKey:DealID" json:"deal,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Contact *Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
