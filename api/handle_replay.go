package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/quill-backend/dto"
	"github.com/quillhq/quill-backend/models"
)

type replayBody struct {
	Family    string `json:"family" binding:"required"`
	SubjectId string `json:"subject_id" binding:"required"`
}

type replayResponse struct {
	EventsApplied int `json:"events_applied"`
}

// handleReplaySubject drops a subject's projection and rebuilds it from its
// approved events. Platform-admin only.
func (api *API) handleReplaySubject(c *gin.Context) {
	var body replayBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: err.Error()})
		return
	}

	usecase := api.usecases.NewReplayUsecase()
	applied, err := usecase.ReplaySubject(c.Request.Context(),
		models.TableFamily(body.Family), body.SubjectId)
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, replayResponse{EventsApplied: applied})
}
