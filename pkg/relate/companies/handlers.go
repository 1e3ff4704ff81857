package companies

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

// Handler handles company-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new companies handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateCompanyRequest represents the request to create a company
type CreateCompanyRequest struct {
	Name        string  `json:"name" binding:"required,min=1"`
	Email       string  `json:"email" binding:"required,email"`
	Phone       string  `json:"phone" binding:"required"`
	Website     string  `json:"website" binding:"required"`
	Industry    string  `json:"industry" binding:"required,oneof=technology finance healthcare retail manufacturing education real-estate"`
	CompanySize *string `json:"company_size" binding:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	Address     string  `json:"address" binding:"required"`
	City        string  `json:"city" binding:"required"`
	State       string  `json:"state" binding:"required"`
	Postcode    string  `json:"postcode" binding:"required"`
	Country     string  `json:"country" binding:"required"`
	LeadSource  string  `json:"lead_source" binding:"required"`
	Status      *string `json:"status"`
	OwnerID     *string `json:"owner_id" binding:"omitempty,uuid"`
}

// UpdateCompanyRequest is a sparse patch: only fields present in the
// payload are applied, and an explicit null clears a nullable field.
type UpdateCompanyRequest struct {
	Name        optional.Field[string] `json:"name"`
	Email       optional.Field[string] `json:"email"`
	Phone       optional.Field[string] `json:"phone"`
	Website     optional.Field[string] `json:"website"`
	Industry    optional.Field[string] `json:"industry"`
	CompanySize optional.Field[string] `json:"company_size"`
	Address     optional.Field[string] `json:"address"`
	City        optional.Field[string] `json:"city"`
	State       optional.Field[string] `json:"state"`
	Postcode    optional.Field[string] `json:"postcode"`
	Country     optional.Field[string] `json:"country"`
	LeadSource  optional.Field[string] `json:"lead_source"`
	Status      optional.Field[string] `json:"status"`
	OwnerID     optional.Field[string] `json:"owner_id"`
}

// validate applies the create-time rules to whichever fields the patch
// carries; an explicit null on a non-nullable column is an error too.
func (r *UpdateCompanyRequest) validate() []apperror.Issue {
	issues := []apperror.Issue{}
	issues = apperror.CheckPatch(issues, "name", r.Name, false, "min=1")
	issues = apperror.CheckPatch(issues, "email", r.Email, false, "email")
	issues = apperror.CheckPatch(issues, "phone", r.Phone, false, "min=1")
	issues = apperror.CheckPatch(issues, "website", r.Website, false, "min=1")
	issues = apperror.CheckPatch(issues, "industry", r.Industry, false,
		"oneof=technology finance healthcare retail manufacturing education real-estate")
	issues = apperror.CheckPatch(issues, "company_size", r.CompanySize, true,
		"oneof=1-10 11-50 51-200 201-500 501-1000 1000+")
	issues = apperror.CheckPatch(issues, "address", r.Address, false, "min=1")
	issues = apperror.CheckPatch(issues, "city", r.City, false, "min=1")
	issues = apperror.CheckPatch(issues, "state", r.State, false, "min=1")
	issues = apperror.CheckPatch(issues, "postcode", r.Postcode, false, "min=1")
	issues = apperror.CheckPatch(issues, "country", r.Country, false, "min=1")
	issues = apperror.CheckPatch(issues, "lead_source", r.LeadSource, false, "min=1")
	issues = apperror.CheckPatch(issues, "status", r.Status, false, "min=1")
	issues = apperror.CheckPatch(issues, "owner_id", r.OwnerID, true, "uuid")
	return issues
}

// findCompany loads a live company scoped to the workspace
func (h *Handler) findCompany(workspaceID, id string) (*models.Company, error) {
	var company models.Company
	if err := h.db.Where("id = ? AND workspace_id = ?", id, workspaceID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Company not found")
		}
		return nil, err
	}
	return &company, nil
}

// List returns companies in the workspace, newest first
// @Summary List companies
// @Description Get a paginated list of companies in the workspace
// @Tags companies
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param q query string false "Search over name, email, phone"
// @Success 200 {object} pagination.Envelope
// @Router /companies [get]
func (h *Handler) List(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	params := pagination.Parse(c)

	query := h.db.Model(&models.Company{}).Where("workspace_id = ?", workspaceID)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		term := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone) LIKE ?", term, term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	var companies []models.Company
	if err := query.Order("created_at DESC, id DESC").
		Limit(params.Limit).Offset(params.Offset()).
		Find(&companies).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Envelope{Data: companies, Pagination: params.Meta(total)})
}

// Get returns a single company
// @Summary Get a company
// @Description Get a company by id
// @Tags companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} models.Company
// @Failure 404 {object} map[string]string "Company not found"
// @Router /companies/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	company, err := h.findCompany(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// Create creates a company in the workspace
// @Summary Create a company
// @Description Create a new company in the workspace
// @Tags companies
// @Accept json
// @Produce json
// @Param request body CreateCompanyRequest true "Company details"
// @Success 201 {object} models.Company
// @Failure 400 {object} map[string]string "Validation error"
// @Router /companies [post]
func (h *Handler) Create(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}

	company := models.Company{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Industry:    models.CompanyIndustry(req.Industry),
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Postcode:    req.Postcode,
		Country:     req.Country,
		LeadSource:  req.LeadSource,
		Status:      "prospect",
		OwnerID:     &userID,
		CreatedBy:   &userID,
		UpdatedBy:   &userID,
	}
	if req.CompanySize != nil {
		size := models.CompanySize(*req.CompanySize)
		company.CompanySize = &size
	}
	if req.Status != nil {
		company.Status = *req.Status
	}
	if req.OwnerID != nil {
		company.OwnerID = req.OwnerID
	}

	if err := h.db.Create(&company).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusCreated, company)
}

// Update applies a sparse patch to a company
// @Summary Update a company
// @Description Update a company; only fields present in the payload change
// @Tags companies
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param request body UpdateCompanyRequest true "Changed fields"
// @Success 200 {object} models.Company
// @Failure 404 {object} map[string]string "Company not found"
// @Router /companies/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	company, err := h.findCompany(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}
	if issues := req.validate(); len(issues) > 0 {
		apperror.ReplyIssues(c, issues)
		return
	}

	if v, ok := req.Name.Value(); ok {
		company.Name = v
	}
	if v, ok := req.Email.Value(); ok {
		company.Email = v
	}
	if v, ok := req.Phone.Value(); ok {
		company.Phone = v
	}
	if v, ok := req.Website.Value(); ok {
		company.Website = v
	}
	if v, ok := req.Industry.Value(); ok {
		company.Industry = models.CompanyIndustry(v)
	}
	if req.CompanySize.Present() {
		if v, ok := req.CompanySize.Value(); ok {
			size := models.CompanySize(v)
			company.CompanySize = &size
		} else {
			company.CompanySize = nil
		}
	}
	if v, ok := req.Address.Value(); ok {
		company.Address = v
	}
	if v, ok := req.City.Value(); ok {
		company.City = v
	}
	if v, ok := req.State.Value(); ok {
		company.State = v
	}
	if v, ok := req.Postcode.Value(); ok {
		company.Postcode = v
	}
	if v, ok := req.Country.Value(); ok {
		company.Country = v
	}
	if v, ok := req.LeadSource.Value(); ok {
		company.LeadSource = v
	}
	if v, ok := req.Status.Value(); ok {
		company.Status = v
	}
	if req.OwnerID.Present() {
		if v, ok := req.OwnerID.Value(); ok {
			company.OwnerID = &v
		} else {
			company.OwnerID = nil
		}
	}
	company.UpdatedBy = &userID

	if err := h.db.Save(company).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// Delete soft-deletes a company
// @Summary Delete a company
// @Description Soft-delete a company; the row is retained and restorable
// @Tags companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} map[string]string "Company deleted"
// @Failure 404 {object} map[string]string "Company not found"
// @Router /companies/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	company, err := h.findCompany(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	// deletedAt and deletedBy are set in one write so the pair is
	// never half-applied
	if err := h.db.Model(company).Updates(map[string]interface{}{
		"deleted_at": time.Now(),
		"deleted_by": userID,
		"updated_by": userID,
	}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Company deleted"})
}

// Restore brings back a soft-deleted company
// @Summary Restore a company
// @Description Restore a soft-deleted company
// @Tags companies
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} models.Company
// @Failure 404 {object} map[string]string "Company not found or not deleted"
// @Router /companies/{id}/restore [patch]
func (h *Handler) Restore(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)
	userID, _ := reqctx.GetUserID(c)

	var company models.Company
	err := h.db.Unscoped().
		Where("id = ? AND workspace_id = ? AND deleted_at IS NOT NULL", c.Param("id"), workspaceID).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperror.Reply(c, apperror.NotFound("Company not found or not deleted"))
			return
		}
		apperror.Reply(c, err)
		return
	}

	if err := h.db.Unscoped().Model(&company).Updates(map[string]interface{}{
		"deleted_at": nil,
		"deleted_by": nil,
		"updated_by": userID,
	}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	company.DeletedAt = gorm.DeletedAt{}
	company.DeletedBy = nil
	company.UpdatedBy = &userID

	c.JSON(http.StatusOK, company)
}

// RegisterRoutes registers company routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/restore", h.Restore)
}
