package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

func middlewareTestRouter(t *testing.T, handlers ...gin.HandlerFunc) (*gin.Engine, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.ReleaseMode)

	recorder := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(recorder)
	engine.Use(handlers...)
	return engine, recorder
}

func TestCredentialsMiddleware(t *testing.T) {
	workspaceId := uuid.Must(uuid.NewV7())
	var captured models.Credentials

	engine, recorder := middlewareTestRouter(t, credentialsMiddleware())
	engine.GET("/", func(c *gin.Context) {
		captured, _ = utils.CredentialsFromCtx(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Id", "actor-1")
	req.Header.Set("X-Workspace-Id", workspaceId.String())
	req.Header.Set("X-Role", "ADMIN")
	engine.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "actor-1", captured.ActorId)
	assert.Equal(t, workspaceId, captured.WorkspaceId)
	assert.Equal(t, models.RoleWorkspaceAdmin, captured.Role)
}

func TestCredentialsMiddlewareDefaultsToMemberRole(t *testing.T) {
	var captured models.Credentials

	engine, recorder := middlewareTestRouter(t, credentialsMiddleware())
	engine.GET("/", func(c *gin.Context) {
		captured, _ = utils.CredentialsFromCtx(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Id", "actor-1")
	engine.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, models.RoleWorkspaceMember, captured.Role)
	assert.Equal(t, uuid.Nil, captured.WorkspaceId)
}

func TestCredentialsMiddlewareRejectsMissingActor(t *testing.T) {
	engine, recorder := middlewareTestRouter(t, credentialsMiddleware())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCredentialsMiddlewareRejectsMalformedWorkspaceId(t *testing.T) {
	engine, recorder := middlewareTestRouter(t, credentialsMiddleware())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Id", "actor-1")
	req.Header.Set("X-Workspace-Id", "not-a-uuid")
	engine.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected int
	}{
		{"admin passes", "ADMIN", http.StatusOK},
		{"platform admin passes", "PLATFORM_ADMIN", http.StatusOK},
		{"member is forbidden", "MEMBER", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, recorder := middlewareTestRouter(t, credentialsMiddleware(),
				requireRole(models.RoleWorkspaceAdmin, models.RolePlatformAdmin))
			engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Actor-Id", "actor-1")
			req.Header.Set("X-Role", tt.role)
			engine.ServeHTTP(recorder, req)

			assert.Equal(t, tt.expected, recorder.Code)
		})
	}
}
