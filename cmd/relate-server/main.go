package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/relatecrm/relate/pkg/relate/activities"
	"github.com/relatecrm/relate/pkg/relate/bootstrap"
	"github.com/relatecrm/relate/pkg/relate/companies"
	"github.com/relatecrm/relate/pkg/relate/contacts"
	"github.com/relatecrm/relate/pkg/relate/database"
	"github.com/relatecrm/relate/pkg/relate/deals"
	"github.com/relatecrm/relate/pkg/relate/models"
	"github.com/relatecrm/relate/pkg/relate/reqctx"
	"github.com/relatecrm/relate/pkg/relate/users"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/relatecrm/relate/api/swagger"
)

// @title Relate CRM API
// @version 1.0
// @description A multi-tenant CRM backend with companies, contacts, deals, and activities.

// @contact.name Relate Support
// @contact.url https://github.com/relatecrm/relate

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	// Get database path from environment or use default
	dbPath := os.Getenv("RELATE_DB_PATH")
	if dbPath == "" {
		dbPath = "relate.db"
	}

	// Connect to database
	if err := database.Connect(dbPath); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Seed a workspace and owner so a fresh install is usable right away
	if err := ensureDefaultWorkspace(); err != nil {
		log.Fatalf("Failed to ensure default workspace exists: %v", err)
	}

	// Set up Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes, all tenant-scoped via request headers
	api := r.Group("/api/v1")
	api.Use(reqctx.Middleware())
	{
		db := database.GetDB()

		companiesHandler := companies.NewHandler(db)
		companiesHandler.RegisterRoutes(api.Group("/companies"))

		contactsHandler := contacts.NewHandler(db)
		contactsHandler.RegisterRoutes(api.Group("/contacts"))

		dealsHandler := deals.NewHandler(db)
		dealsHandler.RegisterRoutes(api.Group("/deals"))

		activitiesHandler := activities.NewHandler(db)
		activitiesHandler.RegisterRoutes(api.Group("/activities"))

		usersHandler := users.NewHandler(db)
		usersHandler.RegisterRoutes(api.Group("/users"))

		bootstrapHandler := bootstrap.NewHandler(db)
		bootstrapHandler.RegisterRoutes(api.Group("/bootstrap"))
	}

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting Relate server on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureDefaultWorkspace creates a default workspace with an owner user
// and membership if no workspace exists yet. The logged ids are what a
// client puts in the x-workspace-id and x-user-id headers.
func ensureDefaultWorkspace() error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.Workspace{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	workspace := models.Workspace{
		Name:   "Default Workspace",
		Status: models.WorkspaceStatusActive,
	}
	if err := db.Create(&workspace).Error; err != nil {
		return err
	}

	email := "owner@relate.local"
	owner := models.User{
		Email:    &email,
		FullName: "Workspace Owner",
		Status:   models.UserStatusActive,
	}
	if err := db.Create(&owner).Error; err != nil {
		return err
	}

	membership := models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      owner.ID,
		Role:        models.WorkspaceRoleOwner,
	}
	if err := db.Create(&membership).Error; err != nil {
		return err
	}

	log.Printf("Created default workspace %s (x-workspace-id: %s)", workspace.Name, workspace.ID)
	log.Printf("Created workspace owner %s (x-user-id: %s)", email, owner.ID)
	return nil
}
