package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/quill-backend/dto"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/usecases"
	"github.com/quillhq/quill-backend/utils"
)

// handleResolvePolicy answers "what would the pipeline do with this request"
// without appending anything.
func (api *API) handleResolvePolicy(c *gin.Context) {
	ctx := c.Request.Context()
	creds, _ := utils.CredentialsFromCtx(ctx)

	source := models.SourceUserApi
	if raw := c.Query("source"); raw != "" {
		var err error
		source, err = models.EventSourceFrom(raw)
		if presentError(c, err) {
			return
		}
	}

	usecase := api.usecases.NewPolicyUsecase()
	decision, err := usecase.DryRun(ctx, usecases.PolicyDryRunInput{
		WorkspaceId:      creds.WorkspaceId,
		Table:            models.TableFamily(c.Query("table")),
		Action:           models.Action(c.Query("action")),
		Source:           source,
		ActorIsSoleOwner: c.Query("sole_owner") == "true",
	})
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, dto.AdaptPolicyDecisionDto(decision))
}
