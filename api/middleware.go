package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/dto"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

const (
	headerActorId     = "X-Actor-Id"
	headerWorkspaceId = "X-Workspace-Id"
	headerRole        = "X-Role"
)

// credentialsMiddleware adapts the identity resolved by the platform's auth
// collaborator into context credentials. Identity resolution itself happens
// upstream; requests reaching this service carry the resolved identity in
// headers.
func credentialsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorId := c.GetHeader(headerActorId)
		if actorId == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.APIErrorResponse{Message: "missing actor identity"})
			return
		}

		creds := models.Credentials{
			ActorId: actorId,
			Role:    models.RoleWorkspaceMember,
		}
		if raw := c.GetHeader(headerWorkspaceId); raw != "" {
			workspaceId, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest,
					dto.APIErrorResponse{Message: "malformed workspace id"})
				return
			}
			creds.WorkspaceId = workspaceId
		}
		if role := c.GetHeader(headerRole); role != "" {
			creds.Role = models.Role(role)
		}

		ctx := utils.StoreCredentialsInContext(c.Request.Context(), creds)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requireRole gates admin-only endpoints.
func requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, ok := utils.CredentialsFromCtx(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.APIErrorResponse{Message: "missing credentials"})
			return
		}
		for _, role := range roles {
			if creds.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.APIErrorResponse{Message: "insufficient role"})
	}
}
