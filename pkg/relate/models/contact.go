package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a workspace-scoped person record, optionally attached to a
// Company in the same workspace.
type Contact struct {
	ID          string  `gorm:"type:uuid;primarykey" json:"id"`
	WorkspaceID string  `gorm:"type:uuid;not null;index" json:"workspace_id"`
	CompanyID   *string `gorm:"type:uuid;index" json:"company_id,omitempty"`
	FirstName   string  `gorm:"not null" json:"first_name"`
	LastName    string  `gorm:"not null" json:"last_name"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Mobile      *string `json:"mobile,omitempty"`
	JobTitle    *string `json:"job_title,omitempty"`
	LeadSource  *string `json:"lead_source,omitempty"`
	Street      *string `json:"street,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
	PostalCode  *string `json:"postal_code,omitempty"`
	Country     *string `json:"country,omitempty"`
	IsPrimary   bool    `gorm:"default:false" json:"is_primary"`

	OwnerID   *string        `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	CreatedBy *string        `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *string        `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *string        `gorm:"type:uuid" json:"-"`

	// Relationships
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (ct *Contact) BeforeCreate(tx *gorm.DB) error {
	if ct.ID == "" {
		ct.ID = uuid.NewString()
	}
	return nil
}
