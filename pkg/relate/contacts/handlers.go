package contacts

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

// Handler handles contact-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new contacts handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateContactRequest represents the request to create a contact
type CreateContactRequest struct {
	CompanyID  *string `json:"company_id" binding:"omitempty,uuid"`
	FirstName  string  `json:"first_name" binding:"required,min=1"`
	LastName   string  `json:"last_name" binding:"required,min=1"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone"`
	Mobile     *string `json:"mobile"`
	JobTitle   *string `json:"job_title"`
	LeadSource *string `json:"lead_source"`
	Street     *string `json:"street"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
	IsPrimary  *bool   `json:"is_primary"`
	OwnerID    *string `json:"owner_id" binding:"omitempty,uuid"`
}

// UpdateContactRequest is a sparse patch. A null company_id detaches
// the contact from its company without any relation lookup.
type UpdateContactRequest struct {
	CompanyID  optional.Field[string] `json:"company_id"`
	FirstName  optional.Field[string] `json:"first_name"`
	LastName   optional.Field[string] `json:"last_name"`
	Email      optional.Field[string] `json:"email"`
	Phone      optional.Field[string] `json:"phone"`
	Mobile     optional.Field[string] `json:"mobile"`
	JobTitle   optional.Field[string] `json:"job_title"`
	LeadSource optional.Field[string] `json:"lead_source"`
	Street     optional.Field[string] `json:"street"`
	City       optional.Field[string] `json:"city"`
	State      optional.Field[string] `json:"state"`
	PostalCode optional.Field[string] `json:"postal_code"`
	Country    optional.Field[string] `json:"country"`
	IsPrimary  optional.Field[bool]   `json:"is_primary"`
	OwnerID    optional.Field[string] `json:"owner_id"`
}

// validate applies the create-time rules to whichever fields the patch
// carries; an explicit null on a non-nullable column is an error too.
func (r *UpdateContactRequest) validate() []apperror.Issue {
	issues := []apperror.Issue{}
	issues = apperror.CheckPatch(issues, "company_id", r.CompanyID, true, "uuid")
	issues = apperror.CheckPatch(issues, "first_name", r.FirstName, false, "min=1")
	issues = apperror.CheckPatch(issues, "last_name", r.LastName, false, "min=1")
	issues = apperror.CheckPatch(issues, "email", r.Email, true, "email")
	issues = apperror.CheckPatch(issues, "is_primary", r.IsPrimary, false, "")
	issues = apperror.CheckPatch(issues, "owner_id", r.OwnerID, true, "uuid")
	return issues
}

// findContact loads a live contact scoped to the workspace
func (h *Handler) findContact(workspaceID, id string) (*models.Contact, error) {
	var contact models.Contact
	if err := h.db.Where("id = ? AND workspace_id = ?", id, workspaceID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Contact not found")
		}
		return nil, err
	}
	return &contact, nil
}

// checkCompany verifies a company id resolves inside the workspace and
// is not soft-deleted
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

// List returns contacts in the workspace, newest first
// @Summary List contacts
// @Description Get a paginated list of contacts in the workspace
// @Tags contacts
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param q query string false "Search over first name, last name, email, phone"
// @Success 200 {object} pagination.Envelope
// @Router /contacts [get]
func (h *Handler) List(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	params := pagination.Parse(c)

	query := h.db.Model(&models.Contact{}).Where("workspace_id = ?", workspaceID)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		term := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone) LIKE ?",
			term, term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	var contacts []models.Contact
	if err := query.Order("created_at DESC, id DESC").
		Limit(params.Limit).Offset(params.Offset()).
		Find(&contacts).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Envelope{Data: contacts, Pagination: params.Meta(total)})
}

// Get returns a single contact
// @Summary Get a contact
// @Description Get a contact by id
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]string "Contact not found"
// @Router /contacts/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	contact, err := h.findContact(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// Create creates a contact in the workspace
// @Summary Create a contact
// @Description Create a new contact; company_id must resolve in the same workspace
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body CreateContactRequest true "Contact details"
// @Success 201 {object} models.Contact
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Company not found"
// @Router /contacts [post]
func (h *Handler) Create(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var req CreateContactRequest
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

	contact := models.Contact{
		WorkspaceID: workspaceID,
		CompanyID:   req.CompanyID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Mobile:      req.Mobile,
		JobTitle:    req.JobTitle,
		LeadSource:  req.LeadSource,
		Street:      req.Street,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		OwnerID:     &userID,
		CreatedBy:   &userID,
		UpdatedBy:   &userID,
	}
	if req.IsPrimary != nil {
		contact.IsPrimary = *req.IsPrimary
	}
	if req.OwnerID != nil {
		contact.OwnerID = req.OwnerID
	}

	if err := h.db.Create(&contact).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// Update applies a sparse patch to a contact
// @Summary Update a contact
// @Description Update a contact; only fields present in the payload change
// @Tags contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param request body UpdateContactRequest true "Changed fields"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]string "Contact not found"
// @Router /contacts/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	contact, err := h.findContact(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	var req UpdateContactRequest
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
			contact.CompanyID = &v
		} else {
			contact.CompanyID = nil
		}
	}
	if v, ok := req.FirstName.Value(); ok {
		contact.FirstName = v
	}
	if v, ok := req.LastName.Value(); ok {
		contact.LastName = v
	}
	applyNullable(req.Email, &contact.Email)
	applyNullable(req.Phone, &contact.Phone)
	applyNullable(req.Mobile, &contact.Mobile)
	applyNullable(req.JobTitle, &contact.JobTitle)
	applyNullable(req.LeadSource, &contact.LeadSource)
	applyNullable(req.Street, &contact.Street)
	applyNullable(req.City, &contact.City)
	applyNullable(req.State, &contact.State)
	applyNullable(req.PostalCode, &contact.PostalCode)
	applyNullable(req.Country, &contact.Country)
	if v, ok := req.IsPrimary.Value(); ok {
		contact.IsPrimary = v
	}
	if req.OwnerID.Present() {
		if v, ok := req.OwnerID.Value(); ok {
			contact.OwnerID = &v
		} else {
			contact.OwnerID = nil
		}
	}
	contact.UpdatedBy = &userID

	if err := h.db.Save(contact).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

// applyNullable merges one optional string field onto a nullable column
func applyNullable(f optional.Field[string], dst **string) {
	if !f.Present() {
		return
	}
	if v, ok := f.Value(); ok {
		*dst = &v
	} else {
		*dst = nil
	}
}

// Delete soft-deletes a contact
// @Summary Delete a contact
// @Description Soft-delete a contact; the row is retained and restorable
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} map[string]string "Contact deleted"
// @Failure 404 {object} map[string]string "Contact not found"
// @Router /contacts/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	contact, err := h.findContact(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	if err := h.db.Model(contact).Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": userID,
		"updated_by": userID,
	}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted"})
}

// Restore brings back a soft-deleted contact
// @Summary Restore a contact
// @Description Restore a soft-deleted contact
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]string "Contact not found or not deleted"
// @Router /contacts/{id}/restore [patch]
func (h *Handler) Restore(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var contact models.Contact
	err := h.db.Unscoped().
		Where("id = ? AND workspace_id = ? AND deleted_at IS NOT NULL", c.Param("id"), workspaceID).
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperror.Reply(c, apperror.NotFound("Contact not found or not deleted"))
			return
		}
		apperror.Reply(c, err)
		return
	}

	if err := h.db.Unscoped().Model(&contact).Updates(map[string]interface{}{
		"deleted_at": nil,
		"deleted_by": nil,
		"updated_by": userID,
	}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	contact.DeletedAt = gorm.DeletedAt{}
	contact.DeletedBy = nil
	contact.UpdatedBy = &userID

	c.JSON(http.StatusOK, contact)
}

// RegisterRoutes registers contact routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/restore", h.Restore)
}
