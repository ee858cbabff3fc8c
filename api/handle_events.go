package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/dto"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/pure_utils"
	"github.com/quillhq/quill-backend/usecases"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (api *API) handleAppendEvent(c *gin.Context) {
	ctx := c.Request.Context()

	var body dto.CreateEventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: err.Error()})
		return
	}

	eventType, err := models.ParseEventType(body.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{
			Message:   err.Error(),
			ErrorCode: dto.UnknownEventType,
		})
		return
	}

	source := models.EventSource("")
	if body.Source != "" {
		source, err = models.EventSourceFrom(body.Source)
		if presentError(c, err) {
			return
		}
	}

	usecase := api.usecases.NewEventUsecase()
	eventId, err := usecase.AppendIntent(ctx, usecases.AppendIntentInput{
		Type:        eventType,
		SubjectId:   body.SubjectId,
		SubjectType: body.SubjectType,
		Data:        body.Data,
		Metadata:    body.Metadata,
		Source:      source,
	})
	if presentError(c, err) {
		return
	}

	// The intent is durably recorded; approval, execution and delivery
	// happen asynchronously.
	c.JSON(http.StatusAccepted, dto.CreateEventResponse{EventId: eventId.String()})
}

func (api *API) handleGetEvent(c *gin.Context) {
	eventId, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: "malformed event id"})
		return
	}

	usecase := api.usecases.NewEventUsecase()
	event, err := usecase.GetEvent(c.Request.Context(), eventId)
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, dto.AdaptEventDto(event))
}

func (api *API) handleListEvents(c *gin.Context) {
	filters := models.EventFilters{
		SubjectId:     c.Query("subject_id"),
		SubjectType:   c.Query("subject_type"),
		Type:          c.Query("type"),
		CorrelationId: c.Query("correlation_id"),
		ActorId:       c.Query("actor_id"),
	}

	usecase := api.usecases.NewEventUsecase()
	events, err := usecase.ListEvents(c.Request.Context(), filters, listLimit(c))
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, pure_utils.Map(events, dto.AdaptEventDto))
}

func listLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
