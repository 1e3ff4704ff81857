package reqctx

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderWorkspaceID carries the tenant identifier on every request
	HeaderWorkspaceID = "x-workspace-id"
	// HeaderUserID carries the acting user identifier on every request
	HeaderUserID = "x-user-id"

	// ContextKeyWorkspaceID is the key for workspace ID in gin context
	ContextKeyWorkspaceID = "workspace_id"
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
)

// Middleware derives the request context from the two tenancy headers.
// The workspace header is checked first, so a request missing both
// reports the workspace error. No existence check is made here; an
// unknown id surfaces later as a not-found from the operation itself.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID := c.GetHeader(HeaderWorkspaceID)
		if workspaceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "x-workspace-id header is required"})
			c.Abort()
			return
		}

		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "x-user-id header is required"})
			c.Abort()
			return
		}

		c.Set(ContextKeyWorkspaceID, workspaceID)
		c.Set(ContextKeyUserID, userID)

		c.Next()
	}
}

// GetWorkspaceID returns the workspace ID from the gin context
func GetWorkspaceID(c *gin.Context) (string, bool) {
	workspaceID, exists := c.Get(ContextKeyWorkspaceID)
	if !exists {
		return "", false
	}
	return workspaceID.(string), true
}

// GetUserID returns the acting user ID from the gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", false
	}
	return userID.(string), true
}
