package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relatecrm/relate/pkg/relate/apperror"
	"github.com/relatecrm/relate/pkg/relate/models"
	"github.com/relatecrm/relate/pkg/relate/optional"
	"github.com/relatecrm/relate/pkg/relate/reqctx"
	"gorm.io/gorm"
)

// Handler handles user and workspace-membership requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateUserRequest represents the request to invite a user into the
// workspace. If a user already exists by external auth id or email, the
// existing row is reused instead of creating a duplicate.
type CreateUserRequest struct {
	Email                *string `json:"email" binding:"omitempty,email"`
	FullName             string  `json:"full_name" binding:"required,min=2"`
	AvatarURL            *string `json:"avatar_url" binding:"omitempty,url"`
	ExternalAuthProvider *string `json:"external_auth_provider" binding:"omitempty,min=2"`
	ExternalAuthID       *string `json:"external_auth_id" binding:"omitempty,min=2"`
	Role                 *string `json:"role" binding:"omitempty,oneof=OWNER ADMIN MEMBER"`
}

// UpdateUserRequest is a sparse patch over the user's profile fields.
// Membership is not touched here.
type UpdateUserRequest struct {
	Email                optional.Field[string] `json:"email"`
	FullName             optional.Field[string] `json:"full_name"`
	AvatarURL            optional.Field[string] `json:"avatar_url"`
	Status               optional.Field[string] `json:"status"`
	ExternalAuthProvider optional.Field[string] `json:"external_auth_provider"`
	ExternalAuthID       optional.Field[string] `json:"external_auth_id"`
}

// validate applies the create-time rules to whichever fields the patch
// carries; an explicit null on a non-nullable column is an error too.
func (r *UpdateUserRequest) validate() []apperror.Issue {
	issues := []apperror.Issue{}
	issues = apperror.CheckPatch(issues, "email", r.Email, true, "email")
	issues = apperror.CheckPatch(issues, "full_name", r.FullName, false, "min=2")
	issues = apperror.CheckPatch(issues, "avatar_url", r.AvatarURL, true, "url")
	issues = apperror.CheckPatch(issues, "status", r.Status, false, "oneof=ACTIVE INVITED DISABLED")
	issues = apperror.CheckPatch(issues, "external_auth_provider", r.ExternalAuthProvider, true, "min=2")
	issues = apperror.CheckPatch(issues, "external_auth_id", r.ExternalAuthID, true, "min=2")
	return issues
}

// UpdateUserRoleRequest represents the request to change a member's role
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=OWNER ADMIN MEMBER"`
}

// findWorkspaceUser loads a live user visible to the workspace. A user
// is visible only through a workspace_members row, so users without a
// membership here are indistinguishable from missing ones.
func (h *Handler) findWorkspaceUser(workspaceID, id string) (*models.User, error) {
	var user models.User
	err := h.db.
		Joins("INNER JOIN workspace_members ON workspace_members.user_id = users.id AND workspace_members.workspace_id = ?", workspaceID).
		Where("users.id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// List returns the workspace's users, newest first
// @Summary List users
// @Description Get all users that are members of the workspace
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Router /users [get]
func (h *Handler) List(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	var users []models.User
	err := h.db.
		Joins("INNER JOIN workspace_members ON workspace_members.user_id = users.id AND workspace_members.workspace_id = ?", workspaceID).
		Order("users.created_at DESC, users.id DESC").
		Find(&users).Error
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// Get returns a single workspace user
// @Summary Get a user
// @Description Get a user by id; only workspace members are visible
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	user, err := h.findWorkspaceUser(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Create invites a user into the workspace
// @Summary Invite a user
// @Description Create or reuse a user and ensure a workspace membership exists
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User details"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /users [post]
func (h *Handler) Create(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}

	var workspace models.Workspace
	if err := h.db.Where("id = ?", workspaceID).First(&workspace).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperror.Reply(c, apperror.NotFound("Workspace not found"))
			return
		}
		apperror.Reply(c, err)
		return
	}

	// Reuse an existing user by external auth id (preferred) or email
	var existing *models.User
	if req.ExternalAuthID != nil {
		var found models.User
		if err := h.db.Where("external_auth_id = ?", *req.ExternalAuthID).First(&found).Error; err == nil {
			existing = &found
		}
	} else if req.Email != nil {
		var found models.User
		if err := h.db.Where("email = ?", *req.Email).First(&found).Error; err == nil {
			existing = &found
		}
	}

	var user models.User
	if existing != nil {
		user = *existing

		if req.FullName != "" {
			user.FullName = req.FullName
		}
		if req.Email != nil {
			user.Email = req.Email
		}
		if req.AvatarURL != nil {
			user.AvatarURL = req.AvatarURL
		}
		if req.ExternalAuthProvider != nil {
			user.ExternalAuthProvider = req.ExternalAuthProvider
		}
		if req.ExternalAuthID != nil {
			user.ExternalAuthID = req.ExternalAuthID
		}

		// a disabled user invited again becomes pending, not active
		if user.Status == models.UserStatusDisabled {
			user.Status = models.UserStatusInvited
		}

		if err := h.db.Save(&user).Error; err != nil {
			apperror.Reply(c, err)
			return
		}
	} else {
		user = models.User{
			FullName:             req.FullName,
			Email:                req.Email,
			AvatarURL:            req.AvatarURL,
			ExternalAuthProvider: req.ExternalAuthProvider,
			ExternalAuthID:       req.ExternalAuthID,
			Status:               models.UserStatusInvited,
		}
		if err := h.db.Create(&user).Error; err != nil {
			apperror.Reply(c, err)
			return
		}
	}

	// Ensure membership; an existing membership keeps its role
	var membership models.WorkspaceMember
	err := h.db.Where("workspace_id = ? AND user_id = ?", workspaceID, user.ID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role := models.WorkspaceRoleMember
		if req.Role != nil {
			role = models.WorkspaceRole(*req.Role)
		}
		membership = models.WorkspaceMember{
			WorkspaceID: workspaceID,
			UserID:      user.ID,
			Role:        role,
		}
		if err := h.db.Create(&membership).Error; err != nil {
			apperror.Reply(c, err)
			return
		}
	} else if err != nil {
		apperror.Reply(c, err)
		return
	}

	created, err := h.findWorkspaceUser(workspaceID, user.ID)
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Update applies a sparse patch to a workspace user's profile
// @Summary Update a user
// @Description Update a workspace user's profile; membership is unchanged
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Changed fields"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	user, err := h.findWorkspaceUser(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}
	if issues := req.validate(); len(issues) > 0 {
		apperror.ReplyIssues(c, issues)
		return
	}

	if req.Email.Present() {
		if v, ok := req.Email.Value(); ok {
			user.Email = &v
		} else {
			user.Email = nil
		}
	}
	if v, ok := req.FullName.Value(); ok {
		user.FullName = v
	}
	if req.AvatarURL.Present() {
		if v, ok := req.AvatarURL.Value(); ok {
			user.AvatarURL = &v
		} else {
			user.AvatarURL = nil
		}
	}
	if v, ok := req.Status.Value(); ok {
		user.Status = models.UserStatus(v)
	}
	if req.ExternalAuthProvider.Present() {
		if v, ok := req.ExternalAuthProvider.Value(); ok {
			user.ExternalAuthProvider = &v
		} else {
			user.ExternalAuthProvider = nil
		}
	}
	if req.ExternalAuthID.Present() {
		if v, ok := req.ExternalAuthID.Value(); ok {
			user.ExternalAuthID = &v
		} else {
			user.ExternalAuthID = nil
		}
	}

	if err := h.db.Save(user).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete soft-deletes a user and removes their workspace membership
// @Summary Delete a user
// @Description Soft-delete the user row and remove the workspace membership
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string "User deleted"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	user, err := h.findWorkspaceUser(workspaceID, c.Param("id"))
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	// User has no deletedBy column; only the timestamp is set
	if err := h.db.Model(user).Update("deleted_at", time.Now()).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	// cut access to this workspace; the user may still belong to others
	if err := h.db.Where("workspace_id = ? AND user_id = ?", workspaceID, user.ID).
		Delete(&models.WorkspaceMember{}).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// Restore brings back a soft-deleted user and re-creates the membership
// @Summary Restore a user
// @Description Restore a soft-deleted user; membership is re-created with role MEMBER
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "User is not deleted"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id}/restore [patch]
func (h *Handler) Restore(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	// deletion removed the membership, so the lookup is by id alone
	var user models.User
	if err := h.db.Unscoped().Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperror.Reply(c, apperror.NotFound("User not found"))
			return
		}
		apperror.Reply(c, err)
		return
	}

	if !user.DeletedAt.Valid {
		apperror.Reply(c, apperror.BadRequest("User is not deleted"))
		return
	}

	updates := map[string]interface{}{"deleted_at": nil}
	if user.Status == models.UserStatusDisabled {
		updates["status"] = models.UserStatusInvited
	}
	if err := h.db.Unscoped().Model(&user).Updates(updates).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	// re-create membership as MEMBER; the prior role is not restored
	var membership models.WorkspaceMember
	err := h.db.Where("workspace_id = ? AND user_id = ?", workspaceID, user.ID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		membership = models.WorkspaceMember{
			WorkspaceID: workspaceID,
			UserID:      user.ID,
			Role:        models.WorkspaceRoleMember,
		}
		if err := h.db.Create(&membership).Error; err != nil {
			apperror.Reply(c, err)
			return
		}
	} else if err != nil {
		apperror.Reply(c, err)
		return
	}

	restored, err := h.findWorkspaceUser(workspaceID, user.ID)
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, restored)
}

// UpdateRole changes a member's role in the workspace
// @Summary Update a user's role
// @Description Change the workspace role of an existing member
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdateUserRoleRequest true "New role"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "User is not a member of this workspace"
// @Router /users/{id}/role [patch]
func (h *Handler) UpdateRole(c *gin.Context) {
	workspaceID, _ := reqctx.GetWorkspaceID(c)

	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.ReplyValidation(c, err)
		return
	}

	var membership models.WorkspaceMember
	err := h.db.Where("workspace_id = ? AND user_id = ?", workspaceID, c.Param("id")).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperror.Reply(c, apperror.NotFound("User is not a member of this workspace"))
			return
		}
		apperror.Reply(c, err)
		return
	}

	membership.Role = models.WorkspaceRole(req.Role)
	if err := h.db.Save(&membership).Error; err != nil {
		apperror.Reply(c, err)
		return
	}

	user, err := h.findWorkspaceUser(workspaceID, membership.UserID)
	if err != nil {
		apperror.Reply(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// RegisterRoutes registers user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/restore", h.Restore)
	rg.PATCH("/:id/role", h.UpdateRole)
}
