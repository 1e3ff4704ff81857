package deals

import (
	"encoding/json"
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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Handler handles deal-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new deals handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateDealRequest represents the request to create a deal
type CreateDealRequest struct {
	Title             string   `json:"title" binding:"required,min=1,max=200"`
	AmountCents       *int64   `json:"amount_cents" binding:"omitempty,min=0"`
	Currency          *string  `json:"currency" binding:"omitempty,len=3,uppercase"`
	Status            *string  `json:"status" binding:"omitempty,oneof=OPEN WON LOST"`
	Stage             *string  `json:"stage" binding:"omitempty,min=1,max=80"`
	ExpectedCloseDate *string  `json:"expected_close_date" binding:"omitempty,datetime=2006-01-02"`
	Description       *string  `json:"description"`
	Priority          *string  `json:"priority"`
	Probability       *int     `json:"probability" binding:"omitempty,min=0,max=100"`
	Source            *string  `json:"source"`
	Tags              []string `json:"tags"`
	CompanyID         *string  `json:"company_id" binding:"omitempty,uuid"`
	ContactID         *string  `json:"contact_id" binding:"omitempty,uuid"`
	OwnerID           *string  `json:"owner_id" binding:"omitempty,uuid"`
}

// UpdateDealRequest is a sparse patch. Null company_id/contact_id clear
// the relation without validation.
type UpdateDealRequest struct {
	Title             optional.Field[string]   `json:"title"`
	AmountCents       optional.Field[int64]    `json:"amount_cents"`
	Currency          optional.Field[string]   `json:"currency"`
	Status            optional.Field[string]   `json:"status"`
	Stage             optional.Field[string]   `json:"stage"`
	ExpectedCloseDate optional.Field[string]   `json:"expected_close_date"`
	Description       optional.Field[string]   `json:"description"`
	Priority          optional.Field[string]   `json:"priority"`
	Probability       optional.Field[int]      `json:"probability"`
	Source            optional.Field[string]   `json:"source"`
	Tags              optional.Field[[]string] `json:"tags"`
	CompanyID         optional.Field[string]   `json:"company_id"`
	ContactID         optional.Field[string]   `json:"contact_id"`
	OwnerID           optional.Field[string]   `json:"owner_id"`
}

// validate applies the create-time rules to whichever fields the patch
// carries; an explicit null on a non-nullable column is an error too.
func (r *UpdateDealRequest) validate() []apperror.Issue {
	issues := []apperror.Issue{}
	issues = apperror.CheckPatch(issues, "title", r.Title, false, "min=1,max=200")
	issues = apperror.CheckPatch(issues, "amount_cents", r.AmountCents, true, "min=0")
	issues = apperror.CheckPatch(issues, "currency", r.Currency, false, "len=3,uppercase")
	issues = apperror.CheckPatch(issues, "status", r.Status, false, "oneof=OPEN WON LOST")
	issues = apperror.CheckPatch(issues, "stage", r.Stage, false, "min=1,max=80")
	issues = apperror.CheckPatch(issues, "expected_close_date", r.ExpectedCloseDate, true, "datetime=2006-01-02")
	issues = apperror.CheckPatch(issues, "probability", r.Probability, true, "min=0,max=100")
	issues = apperror.CheckPatch(issues, "company_id", r.CompanyID, true, "uuid")
	issues = apperror.CheckPatch(issues, "contact_id", r.ContactID, true, "uuid")
	issues = apperror.CheckPatch(issues, "owner_id", r.OwnerID, true, "uuid")
	return issues
}

// findDeal loads a live deal scoped to the workspace
func (h *Handler) findDeal(workspaceID, id string) (*models.Deal, error) {
	var deal models.Deal
	if err := h.db.Where("id = ? AND workspace_id = ?", id, workspaceID).First(&deal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Deal not found")
		}
		return nil, err
	}
	return &deal, nil
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

func tagsJSON(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		return nil, nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// List returns deals in the workspace, newest first
// @Summary List deals
// @Description Get a paginated list of deals in the workspace
// @Tags deals
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param q query string false "Search over title and stage"
// @Success 200 {object} pagination.Envelope
// @Router /deals [get]
func (h *Handler) List(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	params := pagination.Parse(c)

	query := h.db.Model(&models.Deal{}).Where("workspace_id = ?", workspaceID)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		term := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(stage) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	var deals []models.Deal
	if err := query.Order("created_at DESC, id DESC").
		Limit(params.Limit).Offset(params.Offset()).
		Find(&deals).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Envelope{Data: deals, Pagination: params.Meta(total)})
}

// Get returns a single deal
// @Summary Get a deal
// @Description Get a deal by id
// @Tags deals
// @Produce json
// @Param id path string true "Deal ID"
// @Success 200 {object} models.Deal
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	deal, err := h.findDeal(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

// Create creates a deal in the workspace
// @Summary Create a deal
// @Description Create a new deal; related company/contact must resolve in the same workspace
// @Tags deals
// @Accept json
// @Produce json
// @Param request body CreateDealRequest true "Deal details"
// @Success 201 {object} models.Deal
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Company or contact not found"
// @Router /deals [post]
func (h *Handler) Create(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
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

	deal := models.Deal{
		WorkspaceID:       workspaceID,
		Title:             req.Title,
		AmountCents:       req.AmountCents,
		Currency:          "AUD",
		Status:            models.DealStatusOpen,
		Stage:             "New",
		ExpectedCloseDate: req.ExpectedCloseDate,
		Description:       req.Description,
		Priority:          req.Priority,
		Probability:       req.Probability,
		Source:            req.Source,
		CompanyID:         req.CompanyID,
		ContactID:         req.ContactID,
		OwnerID:           &userID,
		CreatedBy:         &userID,
		UpdatedBy:         &userID,
	}
	if req.Currency != nil {
		deal.Currency = *req.Currency
	}
	if req.Status != nil {
		deal.Status = models.DealStatus(*req.Status)
	}
	if req.Stage != nil {
		deal.Stage = *req.Stage
	}
	if req.OwnerID != nil {
		deal.OwnerID = req.OwnerID
	}
	if req.Tags != nil {
		tags, err := tagsJSON(req.Tags)
		if err != nil {
			apperror.Reply(c, err)
			return
		}
		deal.Tags = tags
	}

	if err := h.db.Create(&deal).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusCreated, deal)
}

// Update applies a sparse patch to a deal
// @Summary Update a deal
// @Description Update a deal; only fields present in the payload change
// @Tags deals
// @Accept json
// @Produce json
// @Param id path string true "Deal ID"
// @Param request body UpdateDealRequest true "Changed fields"
// @Success 200 {object} models.Deal
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	deal, err := h.findDeal(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	var req UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}
	if issues := req.validate(); len(issues) > 0 {
		apperror.ReplyIssues(c, issues)
		return
	}

	if req.CompanyID.Present() {
		if v, ok := req.CompanyID.Value(); ok {
			if err := h.checkCompany(workspaceID, v); err != nil {
				apperror.Reply(c, err)
				return
			}
			deal.CompanyID = &v
		} else {
			deal.CompanyID = nil
		}
	}
	if req.ContactID.Present() {
		if v, ok := req.ContactID.Value(); ok {
			if err := h.checkContact(workspaceID, v); err != nil {
				apperror.Reply(c, err)
				return
			}
			deal.ContactID = &v
		} else {
			deal.ContactID = nil
		}
	}

	if v, ok := req.Title.Value(); ok {
		deal.Title = v
	}
	if req.AmountCents.Present() {
		if v, ok := req.AmountCents.Value(); ok {
			deal.AmountCents = &v
		} else {
			deal.AmountCents = nil
		}
	}
	if v, ok := req.Currency.Value(); ok {
		deal.Currency = v
	}
	if v, ok := req.Status.Value(); ok {
		deal.Status = models.DealStatus(v)
	}
	if v, ok := req.Stage.Value(); ok {
		deal.Stage = v
	}
	if req.ExpectedCloseDate.Present() {
		if v, ok := req.ExpectedCloseDate.Value(); ok {
			deal.ExpectedCloseDate = &v
		} else {
			deal.ExpectedCloseDate = nil
		}
	}
	if req.Description.Present() {
		if v, ok := req.Description.Value(); ok {
			deal.Description = &v
		} else {
			deal.Description = nil
		}
	}
	if req.Priority.Present() {
		if v, ok := req.Priority.Value(); ok {
			deal.Priority = &v
		} else {
			deal.Priority = nil
		}
	}
	if req.Probability.Present() {
		if v, ok := req.Probability.Value(); ok {
			deal.Probability = &v
		} else {
			deal.Probability = nil
		}
	}
	if req.Source.Present() {
		if v, ok := req.Source.Value(); ok {
			deal.Source = &v
		} else {
			deal.Source = nil
		}
	}
	if req.Tags.Present() {
		if v, ok := req.Tags.Value(); ok {
			tags, err := tagsJSON(v)
			if err != nil {
				apperror.Reply(c, err)
				return
			}
			deal.Tags = tags
		} else {
			deal.Tags = nil
		}
	}
	if req.OwnerID.Present() {
		if v, ok := req.OwnerID.Value(); ok {
			deal.OwnerID = &v
		} else {
			deal.OwnerID = nil
		}
	}
	deal.UpdatedBy = &userID

	if err := h.db.Save(deal).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, deal)
}

// Delete soft-deletes a deal
// @Summary Delete a deal
// @Description Soft-delete a deal; the row is retained and restorable
// @Tags deals
// @Produce json
// @Param id path string true "Deal ID"
// @Success 200 {object} map[string]string "Deal deleted"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	deal, err := h.findDeal(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	if err := h.db.Model(deal).Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": userID,
		"updated_by": userID,
	}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deal deleted"})
}

// Restore brings back a soft-deleted deal
// @Summary Restore a deal
// @Description Restore a soft-deleted deal
// @Tags deals
// @Produce json
// @Param id path string true "Deal ID"
// @Success 200 {object} models.Deal
// @Failure 404 {object} map[string]string "Deal not found or not deleted"
// @Router /deals/{id}/restore [patch]
func (h *Handler) Restore(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var deal models.Deal
	err := h.db.Unscoped().
		Where("id = ? AND workspace_id = ? AND deleted_at IS NOT NULL", c.Param("id"), workspaceID).
		First(&deal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperror.Reply(c, apperror.NotFound("Deal not found or not deleted"))
			return
		}
		apperror.Reply(c, err)
		return
	}

	if err := h.db.Unscoped().Model(&deal).Updates(map[string]interface{}{
		"deleted_at": nil,
		"deleted_by": nil,
		"updated_by": userID,
	}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	deal.DeletedAt = gorm.DeletedAt{}
	deal.DeletedBy = nil
	deal.UpdatedBy = &userID

	c.JSON(http.StatusOK, deal)
}

// RegisterRoutes registers deal routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/restore", h.Restore)
}
