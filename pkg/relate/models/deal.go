package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DealStatus represents where a deal sits in its lifecycle
type DealStatus string

const (
	DealStatusOpen DealStatus = "OPEN"
	DealStatusWon  DealStatus = "WON"
	DealStatusLost DealStatus = "LOST"
)

// Deal is a workspace-scoped sales opportunity. Amounts are stored in
// minor currency units (cents) alongside a 3-letter currency code.
type Deal struct {
	ID          string     `gorm:"type:uuid;primarykey" json:"id"`
	WorkspaceID string     `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Title       string     `gorm:"not null;index" json:"title"`
	AmountCents *int64     `json:"amount_cents,omitempty"`
	Currency    string     `gorm:"type:char(3);not null;default:'AUD'" json:"currency"`
	Status      DealStatus `gorm:"type:varchar(10);default:'OPEN';index" json:"status"`
	Stage       string     `gorm:"not null;default:'New';index" json:"stage"`

	// YYYY-MM-DD, no time component
	ExpectedCloseDate *string `gorm:"type:varchar(10)" json:"expected_close_date,omitempty"`

	Description *string        `json:"description,omitempty"`
	Priority    *string        `json:"priority,omitempty"`
	Probability *int           `json:"probability,omitempty"`
	Source      *string        `json:"source,omitempty"`
	Tags        datatypes.JSON `json:"tags,omitempty"`

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
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Contact *Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
}

func (d *Deal) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
