package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/dto"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/pure_utils"
	"github.com/quillhq/quill-backend/utils"
)

func (api *API) handleListProposals(c *gin.Context) {
	creds, _ := utils.CredentialsFromCtx(c.Request.Context())

	filters := models.ProposalFilters{
		WorkspaceId: creds.WorkspaceId,
		Status:      c.Query("status"),
		TargetType:  c.Query("target_type"),
	}

	usecase := api.usecases.NewProposalManager()
	proposals, err := usecase.ListProposals(c.Request.Context(), filters, listLimit(c))
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, pure_utils.Map(proposals, dto.AdaptProposalDto))
}

func (api *API) handleGetProposal(c *gin.Context) {
	proposalId, err := uuid.Parse(c.Param("proposal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: "malformed proposal id"})
		return
	}

	usecase := api.usecases.NewProposalManager()
	proposal, err := usecase.GetProposal(c.Request.Context(), proposalId)
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, dto.AdaptProposalDto(proposal))
}

func (api *API) handleResolveProposal(c *gin.Context) {
	ctx := c.Request.Context()

	proposalId, err := uuid.Parse(c.Param("proposal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: "malformed proposal id"})
		return
	}

	var body dto.ResolveProposalBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: err.Error()})
		return
	}

	creds, _ := utils.CredentialsFromCtx(ctx)

	usecase := api.usecases.NewProposalManager()
	err = usecase.Resolve(ctx, proposalId, models.ProposalDecision(body.Decision),
		creds.ActorId, body.Reason)
	if presentError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
