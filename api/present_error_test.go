package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/quillhq/quill-backend/dto"
	"github.com/quillhq/quill-backend/models"
)

func TestPresentError(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"bad parameter", errors.Wrap(models.BadParameterError, "bad"), http.StatusBadRequest},
		{"unauthorized", models.UnAuthorizedError, http.StatusUnauthorized},
		{"forbidden", models.ForbiddenError, http.StatusForbidden},
		{"not found", errors.Wrap(models.NotFoundError, "missing"), http.StatusNotFound},
		{"already resolved", models.ErrProposalAlreadyResolved, http.StatusConflict},
		{"conflict", models.ErrMutationConflict, http.StatusConflict},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			assert.True(t, presentError(c, tt.err))
			assert.Equal(t, tt.expected, recorder.Code)
		})
	}
}

func TestPresentErrorPassesThroughNil(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	assert.False(t, presentError(c, nil))
}

func TestPresentErrorResolvedProposalCarriesErrorCode(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	presentError(c, models.ErrProposalAlreadyResolved)

	var body dto.APIErrorResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, dto.ProposalAlreadyResolved, body.ErrorCode)
}

func TestPresentErrorObscuresInternalErrors(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	presentError(c, errors.New("pq: connection reset"))

	var body dto.APIErrorResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body.Message)
}
