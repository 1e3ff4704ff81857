package models

import "gorm.io/gorm"

// AllModels returns all models for migration
// Note: Workspace and User must be migrated before the entities that
// reference them
func AllModels() []interface{} {
	return []interface{}{
		&Workspace{},
		&User{},
		&WorkspaceMember{},
		&Company{},
		&Contact{},
		&Deal{},
		&Activity{},
		&DashboardConfig{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
