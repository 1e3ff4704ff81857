package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyIndustry is the closed set of industries a company can belong to
type CompanyIndustry string

const (
	IndustryTechnology    CompanyIndustry = "technology"
	IndustryFinance       CompanyIndustry = "finance"
	IndustryHealthcare    CompanyIndustry = "healthcare"
	IndustryRetail        CompanyIndustry = "retail"
	IndustryManufacturing CompanyIndustry = "manufacturing"
	IndustryEducation     CompanyIndustry = "education"
	IndustryRealEstate    CompanyIndustry = "real-estate"
)

// CompanySize buckets a company's headcount
type CompanySize string

const (
	CompanySize1To10     CompanySize = "1-10"
	CompanySize11To50    CompanySize = "11-50"
	CompanySize51To200   CompanySize = "51-200"
	CompanySize201To500  CompanySize = "201-500"
	CompanySize501To1000 CompanySize = "501-1000"
	CompanySize1000Plus  CompanySize = "1000+"
)

// Company is a workspace-scoped CRM account record.
type Company struct {
	ID          string          `gorm:"type:uuid;primarykey" json:"id"`
	WorkspaceID string          `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name        string          `gorm:"not null" json:"name"`
	Email       string          `gorm:"not null" json:"email"`
	Phone       string          `gorm:"not null" json:"phone"`
	Website     string          `gorm:"not null" json:"website"`
	Industry    CompanyIndustry `gorm:"type:varchar(40);not null" json:"industry"`
	CompanySize *CompanySize    `gorm:"type:varchar(20)" json:"company_size,omitempty"`
	Address     string          `gorm:"not null" json:"address"`
	City        string          `gorm:"not null" json:"city"`
	State       string          `gorm:"not null" json:"state"`
	Postcode    string          `gorm:"not null" json:"postcode"`
	Country     string          `gorm:"not null" json:"country"`
	LeadSource  string          `gorm:"not null" json:"lead_source"`
	Status      string          `gorm:"not null;default:'prospect'" json:"status"`

	OwnerID   *string        `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	CreatedBy *string        `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *string        `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *string        `gorm:"type:uuid" json:"-"`
}

func (co *Company) BeforeCreate(tx *gorm.DB) error {
	if co.ID == "" {
		co.ID = uuid.NewString()
	}
	return nil
}
