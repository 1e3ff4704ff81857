package bootstrap

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/relatecrm/relate/pkg/relate/apperror"
	"github.com/relatecrm/relate/pkg/relate/models"
	"github.com/relatecrm/relate/pkg/relate/reqctx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Handler serves the per-user dashboard bootstrap document
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new bootstrap handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UpdateConfigRequest is a sparse patch over the dashboard document.
// Only sections present in the payload are replaced.
type UpdateConfigRequest struct {
	Version     *string         `json:"version"`
	UserDetails json.RawMessage `json:"user_details"`
	Items       json.RawMessage `json:"items"`
	Layout      json.RawMessage `json:"layout"`
	Settings    json.RawMessage `json:"settings"`
}

// defaultSettings is the theme palette a fresh dashboard starts with.
func defaultSettings() datatypes.JSON {
	return datatypes.JSON(`{
		"primaryColor": "#2563EB",
		"secondaryColor": "#E0E7FF",
		"accentColor": "#4F46E5",
		"textPrimaryColor": "#1F2937",
		"textSecondaryColor": "#4B5563",
		"backgroundColor": "#FFFFFF",
		"logoUrl": null,
		"smallLogoUrl": null
	}`)
}

func (h *Handler) findOrCreate(workspaceID, userID string) (*models.DashboardConfig, error) {
	var config models.DashboardConfig
	err := h.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&config).Error
	if err == nil {
		return &config, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	config = models.DashboardConfig{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Version:     "1.0",
		UserDetails: datatypes.JSON(`{}`),
		Items:       datatypes.JSON(`[]`),
		Layout:      datatypes.JSON(`{}`),
		Settings:    defaultSettings(),
	}
	if err := h.db.Create(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

// Get returns the caller's dashboard config, creating it on first access
// @Summary Get dashboard config
// @Description Get the per-user dashboard document, creating a default one if missing
// @Tags bootstrap
// @Produce json
// @Success 200 {object} models.DashboardConfig
// @Router /bootstrap [get]
func (h *Handler) Get(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	config, err := h.findOrCreate(workspaceID, userID)
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, config)
}

// Update upserts the caller's dashboard config
// @Summary Update dashboard config
// @Description Replace the sections present in the payload; missing sections are kept
// @Tags bootstrap
// @Accept json
// @Produce json
// @Param request body UpdateConfigRequest true "Changed sections"
// @Success 200 {object} models.DashboardConfig
// @Router /bootstrap [put]
func (h *Handler) Update(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}

	config, err := h.findOrCreate(workspaceID, userID)
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	if req.Version != nil {
		config.Version = *req.Version
	}
	if req.UserDetails != nil {
		config.UserDetails = datatypes.JSON(req.UserDetails)
	}
	if req.Items != nil {
		config.Items = datatypes.JSON(req.Items)
	}
	if req.Layout != nil {
		config.Layout = datatypes.JSON(req.Layout)
	}
	if req.Settings != nil {
		config.Settings = datatypes.JSON(req.Settings)
	}

	if err := h.db.Save(config).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, config)
}

// RegisterRoutes registers bootstrap routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.PUT("", h.Update)
}
