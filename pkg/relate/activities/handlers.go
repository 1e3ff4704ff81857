package activities

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relatecrm/relate/pkg/relate/apperror"
	"github.com/relatecrm/relate/pkg/relate/models"
	"github.com/relatecrm/relate/pkg/relate/optional"
	"github.com/relatecrm/relate/pkg/relate/pagination"
	"github.com/relatecrm/relate/pkg/relate/reqctx"
	"gorm.io/gorm"
)

// Handler handles activity-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new activities handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateActivityRequest represents the request to create an activity.
// At least one of deal_id, company_id, contact_id must be given.
type CreateActivityRequest struct {
	Type      string     `json:"type" binding:"required,oneof=NOTE CALL EMAIL MEETING TASK"`
	Title     string     `json:"title" binding:"required,min=1,max=200"`
	Body      *string    `json:"body"`
	Status    *string    `json:"status" binding:"omitempty,oneof=OPEN DONE"`
	DueAt     *time.Time `json:"due_at"`
	Priority  *string    `json:"priority"`
	DealID    *string    `json:"deal_id" binding:"omitempty,uuid"`
	CompanyID *string    `json:"company_id" binding:"omitempty,uuid"`
	ContactID *string    `json:"contact_id" binding:"omitempty,uuid"`
}

// UpdateActivityRequest is a sparse patch
type UpdateActivityRequest struct {
	Type      optional.Field[string]    `json:"type"`
	Title     optional.Field[string]    `json:"title"`
	Body      optional.Field[string]    `json:"body"`
	Status    optional.Field[string]    `json:"status"`
	DueAt     optional.Field[time.Time] `json:"due_at"`
	Priority  optional.Field[string]    `json:"priority"`
	DealID    optional.Field[string]    `json:"deal_id"`
	CompanyID optional.Field[string]    `json:"company_id"`
	ContactID optional.Field[string]    `json:"contact_id"`
}

// validate applies the create-time rules to whichever fields the patch
// carries; an explicit null on a non-nullable column is an error too.
func (r *UpdateActivityRequest) validate() []apperror.Issue {
	issues := []apperror.Issue{}
	issues = apperror.CheckPatch(issues, "type", r.Type, false, "oneof=NOTE CALL EMAIL MEETING TASK")
	issues = apperror.CheckPatch(issues, "title", r.Title, false, "min=1,max=200")
	issues = apperror.CheckPatch(issues, "status", r.Status, false, "oneof=OPEN DONE")
	issues = apperror.CheckPatch(issues, "deal_id", r.DealID, true, "uuid")
	issues = apperror.CheckPatch(issues, "company_id", r.CompanyID, true, "uuid")
	issues = apperror.CheckPatch(issues, "contact_id", r.ContactID, true, "uuid")
	return issues
}

// findActivity loads a live activity scoped to the workspace
func (h *Handler) findActivity(workspaceID, id string) (*models.Activity, error) {
	var activity models.Activity
	if err := h.db.Where("id = ? AND workspace_id = ?", id, workspaceID).First(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Activity not found")
		}
		return nil, err
	}
	return &activity, nil
}

func (h *Handler) checkDeal(workspaceID, dealID string) error {
	var deal models.Deal
	if err := h.db.Where("id = ? AND workspace_id = ?", dealID, workspaceID).First(&deal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Deal not found")
		}
		return err
	}
	return nil
}

func (h *Handler) checkCompany(workspaceID, companyID string) error {
	var company models.Company
	if err := h.db.Where("id = ? AND workspace_id = ?", companyID, workspaceID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Company not found")
		}
		return err
	}
	return nil
}

func (h *Handler) checkContact(workspaceID, contactID string) error {
	var contact models.Contact
	if err := h.db.Where("id = ? AND workspace_id = ?", contactID, workspaceID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Contact not found")
		}
		return err
	}
	return nil
}

// List returns activities in the workspace, newest first
// @Summary List activities
// @Description Get a paginated list of activities in the workspace
// @Tags activities
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param q query string false "Search over title"
// @Success 200 {object} pagination.Envelope
// @Router /activities [get]
func (h *Handler) List(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	params := pagination.Parse(c)

	query := h.db.Model(&models.Activity{}).Where("workspace_id = ?", workspaceID)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		term := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ?", term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	var activities []models.Activity
	if err := query.Order("created_at DESC, id DESC").
		Limit(params.Limit).Offset(params.Offset()).
		Find(&activities).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Envelope{Data: activities, Pagination: params.Meta(total)})
}

// Get returns a single activity
// @Summary Get an activity
// @Description Get an activity by id
// @Tags activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} models.Activity
// @Failure 404 {object} map[string]string "Activity not found"
// @Router /activities/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	activity, err := h.findActivity(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// Create creates an activity in the workspace
// @Summary Create an activity
// @Description Create a new activity linked to at least one of a deal, company, or contact
// @Tags activities
// @Accept json
// @Produce json
// @Param request body CreateActivityRequest true "Activity details"
// @Success 201 {object} models.Activity
// @Failure 400 {object} map[string]string "Validation error or missing link"
// @Failure 404 {object} map[string]string "Related entity not found"
// @Router /activities [post]
func (h *Handler) Create(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}

	if req.DealID == nil && req.CompanyID == nil && req.ContactID == nil {
		apperror.Reply(c, apperror.BadRequest("Activity must be linked to a deal, company, or contact"))
		return
	}

	if req.DealID != nil {
		if err := h.checkDeal(workspaceID, *req.DealID); err != nil {
			apperror.Reply(c, err)
			return
		}
	}
	if req.CompanyID != nil {
		if err := h.checkCompany(workspaceID, *req.CompanyID); err != nil {
			apperror.Reply(c, err)
			return
		}
	}
	if req.ContactID != nil {
		if err := h.checkContact(workspaceID, *req.ContactID); err != nil {
			apperror.Reply(c, err)
			return
		}
	}

	activity := models.Activity{
		WorkspaceID: workspaceID,
		Type:        models.ActivityType(req.Type),
		Status:      models.ActivityStatusOpen,
		Title:       req.Title,
		Body:        req.Body,
		DueAt:       req.DueAt,
		Priority:    req.Priority,
		DealID:      req.DealID,
		CompanyID:   req.CompanyID,
		ContactID:   req.ContactID,
		OwnerID:     &userID,
		CreatedBy:   &userID,
		UpdatedBy:   &userID,
	}
	if req.Status != nil {
		activity.Status = models.ActivityStatus(*req.Status)
	}

	if err := h.db.Create(&activity).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// Update applies a sparse patch to an activity
// @Summary Update an activity
// @Description Update an activity; only fields present in the payload change
// @Tags activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param request body UpdateActivityRequest true "Changed fields"
// @Success 200 {object} models.Activity
// @Failure 404 {object} map[string]string "Activity not found"
// @Router /activities/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	activity, err := h.findActivity(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	var req UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}
	if issues := req.validate(); len(issues) > 0 {
		apperror.ReplyIssues(c, issues)
		return
	}

	if req.DealID.Present() {
		if v, ok := req.DealID.Value(); ok {
			if err := h.checkDeal(workspaceID, v); err != nil {
				apperror.Reply(c, err)
				return
			}
			activity.DealID = &v
		} else {
			activity.DealID = nil
		}
	}
	if req.CompanyID.Present() {
		if v, ok := req.CompanyID.Value(); ok {
			if err := h.checkCompany(workspaceID, v); err != nil {
				apperror.Reply(c, err)
				return
			}
			activity.CompanyID = &v
		} else {
			activity.CompanyID = nil
		}
	}
	if req.ContactID.Present() {
		if v, ok := req.ContactID.Value(); ok {
			if err := h.checkContact(workspaceID, v); err != nil {
				apperror.Reply(c, err)
				return
			}
			activity.ContactID = &v
		} else {
			activity.ContactID = nil
		}
	}

	if v, ok := req.Type.Value(); ok {
		activity.Type = models.ActivityType(v)
	}
	if v, ok := req.Title.Value(); ok {
		activity.Title = v
	}
	if req.Body.Present() {
		if v, ok := req.Body.Value(); ok {
			activity.Body = &v
		} else {
			activity.Body = nil
		}
	}
	if v, ok := req.Status.Value(); ok {
		activity.Status = models.ActivityStatus(v)
	}
	if req.DueAt.Present() {
		if v, ok := req.DueAt.Value(); ok {
			activity.DueAt = &v
		} else {
			activity.DueAt = nil
		}
	}
	if req.Priority.Present() {
		if v, ok := req.Priority.Value(); ok {
			activity.Priority = &v
		} else {
			activity.Priority = nil
		}
	}
	activity.UpdatedBy = &userID

	if err := h.db.Save(activity).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// Delete soft-deletes an activity
// @Summary Delete an activity
// @Description Soft-delete an activity; the row is retained and restorable
// @Tags activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} map[string]string "Activity deleted"
// @Failure 404 {object} map[string]string "Activity not found"
// @Router /activities/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	activity, err := h.findActivity(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	if err := h.db.Model(activity).Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": userID,
		"updated_by": userID,
	}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted"})
}

// Restore brings back a soft-deleted activity
// @Summary Restore an activity
// @Description Restore a soft-deleted activity
// @Tags activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} models.Activity
// @Failure 404 {object} map[string]string "Activity not found or not deleted"
// @Router /activities/{id}/restore [patch]
func (h *Handler) Restore(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var activity models.Activity
	err := h.db.Unscoped().
		Where("id = ? AND workspace_id = ? AND deleted_at IS NOT NULL", c.Param("id"), workspaceID).
		First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperror.Reply(c, apperror.NotFound("Activity not found or not deleted"))
			return
		}
		apperror.Reply(c, err)
		return
	}

	if err := h.db.Unscoped().Model(&activity).Updates(map[string]interface{}{
		"deleted_at": nil,
		"deleted_by": nil,
		"updated_by": userID,
	}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	activity.DeletedAt = gorm.DeletedAt{}
	activity.DeletedBy = nil
	activity.UpdatedBy = &userID

	c.JSON(http.StatusOK, activity)
}

// RegisterRoutes registers activity routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/restore", h.Restore)
}
