package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/dto"
	"github.com/quillhq/quill-backend/pure_utils"
	"github.com/quillhq/quill-backend/usecases"
	"github.com/quillhq/quill-backend/utils"
)

func (api *API) handleCreateWebhookSubscription(c *gin.Context) {
	ctx := c.Request.Context()

	var body dto.CreateWebhookSubscriptionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: err.Error()})
		return
	}

	creds, _ := utils.CredentialsFromCtx(ctx)

	usecase := api.usecases.NewWebhookSubscriptionUsecase()
	subscription, err := usecase.CreateSubscription(ctx, usecases.CreateWebhookSubscriptionInput{
		WorkspaceId:       creds.WorkspaceId,
		Url:               body.Url,
		EventTypePatterns: body.EventTypePatterns,
	})
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, dto.AdaptWebhookSubscriptionWithSecretDto(subscription))
}

func (api *API) handleListWebhookSubscriptions(c *gin.Context) {
	creds, _ := utils.CredentialsFromCtx(c.Request.Context())

	usecase := api.usecases.NewWebhookSubscriptionUsecase()
	subscriptions, err := usecase.ListSubscriptions(c.Request.Context(), creds.WorkspaceId)
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, pure_utils.Map(subscriptions, dto.AdaptWebhookSubscriptionDto))
}

func (api *API) handleGetWebhookSubscription(c *gin.Context) {
	subscriptionId, err := uuid.Parse(c.Param("subscription_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: "malformed subscription id"})
		return
	}

	usecase := api.usecases.NewWebhookSubscriptionUsecase()
	subscription, err := usecase.GetSubscription(c.Request.Context(), subscriptionId)
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, dto.AdaptWebhookSubscriptionDto(subscription))
}

func (api *API) handleUpdateWebhookSubscription(c *gin.Context) {
	subscriptionId, err := uuid.Parse(c.Param("subscription_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: "malformed subscription id"})
		return
	}

	var body dto.UpdateWebhookSubscriptionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: err.Error()})
		return
	}

	usecase := api.usecases.NewWebhookSubscriptionUsecase()
	subscription, err := usecase.UpdateSubscription(c.Request.Context(), subscriptionId,
		usecases.UpdateWebhookSubscriptionInput{
			Url:               body.Url,
			EventTypePatterns: body.EventTypePatterns,
			Active:            body.Active,
		})
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, dto.AdaptWebhookSubscriptionDto(subscription))
}

func (api *API) handleDeleteWebhookSubscription(c *gin.Context) {
	subscriptionId, err := uuid.Parse(c.Param("subscription_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: "malformed subscription id"})
		return
	}

	usecase := api.usecases.NewWebhookSubscriptionUsecase()
	if presentError(c, usecase.DeleteSubscription(c.Request.Context(), subscriptionId)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (api *API) handleListWebhookDeliveries(c *gin.Context) {
	subscriptionId, err := uuid.Parse(c.Param("subscription_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: "malformed subscription id"})
		return
	}

	usecase := api.usecases.NewWebhookSubscriptionUsecase()
	deliveries, err := usecase.ListDeliveries(c.Request.Context(), subscriptionId, listLimit(c))
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, pure_utils.Map(deliveries, dto.AdaptWebhookDeliveryDto))
}

func (api *API) handleListDeliveryAttempts(c *gin.Context) {
	deliveryId, err := uuid.Parse(c.Param("delivery_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.APIErrorResponse{Message: "malformed delivery id"})
		return
	}

	usecase := api.usecases.NewWebhookSubscriptionUsecase()
	attempts, err := usecase.ListDeliveryAttempts(c.Request.Context(), deliveryId)
	if presentError(c, err) {
		return
	}
	c.JSON(http.StatusOK, pure_utils.Map(attempts, dto.AdaptDeliveryAttemptDto))
}
