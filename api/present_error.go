package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/quillhq/quill-backend/dto"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

// presentError writes the HTTP representation of a usecase error and reports
// whether it handled one.
func presentError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, models.BadParameterError):
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: err.Error()})
	case errors.Is(err, models.UnAuthorizedError):
		c.JSON(http.StatusUnauthorized, dto.APIErrorResponse{Message: err.Error()})
	case errors.Is(err, models.ForbiddenError):
		c.JSON(http.StatusForbidden, dto.APIErrorResponse{Message: err.Error()})
	case errors.Is(err, models.NotFoundError):
		c.JSON(http.StatusNotFound, dto.APIErrorResponse{Message: err.Error()})
	case errors.Is(err, models.ErrProposalAlreadyResolved):
		c.JSON(http.StatusConflict, dto.APIErrorResponse{
			Message:   err.Error(),
			ErrorCode: dto.ProposalAlreadyResolved,
		})
	case errors.Is(err, models.ConflictError):
		c.JSON(http.StatusConflict, dto.APIErrorResponse{Message: err.Error()})
	default:
		utils.LoggerFromContext(c.Request.Context()).
			ErrorContext(c.Request.Context(), "unexpected error handling request", "error", err)
		utils.LogAndReportSentryError(c.Request.Context(), err)
		c.JSON(http.StatusInternalServerError, dto.APIErrorResponse{Message: "internal error"})
	}
	return true
}
