package api

import (
	"context"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

func corsOption(conf Configuration) cors.Config {
	allowedOrigins := []string{"https://*"}
	if conf.Env == "development" {
		allowedOrigins = append(allowedOrigins,
			"http://localhost:3000", "http://localhost:5173")
	}
	return cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{
			http.MethodOptions, http.MethodHead, http.MethodGet,
			http.MethodPost, http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders: []string{
			"Authorization", "Content-Type",
			headerActorId, headerWorkspaceId, headerRole,
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
}

func InitRouterMiddlewares(ctx context.Context, conf Configuration) *gin.Engine {
	if conf.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := utils.LoggerFromContext(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(cors.New(corsOption(conf)))
	r.Use(utils.StoreLoggerInContextMiddleware(logger))

	return r
}

func (api *API) routes() {
	r := api.router

	r.GET("/-/liveness", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/-/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/", credentialsMiddleware())

	authed.POST("/events", api.handleAppendEvent)
	authed.GET("/events", api.handleListEvents)
	authed.GET("/events/:event_id", api.handleGetEvent)

	authed.GET("/proposals", api.handleListProposals)
	authed.GET("/proposals/:proposal_id", api.handleGetProposal)
	authed.POST("/proposals/:proposal_id/resolve",
		requireRole(models.RoleWorkspaceAdmin, models.RolePlatformAdmin),
		api.handleResolveProposal)

	authed.GET("/policies/resolve", api.handleResolvePolicy)

	webhooks := authed.Group("/webhook-subscriptions",
		requireRole(models.RoleWorkspaceAdmin, models.RolePlatformAdmin))
	webhooks.POST("", api.handleCreateWebhookSubscription)
	webhooks.GET("", api.handleListWebhookSubscriptions)
	webhooks.GET("/:subscription_id", api.handleGetWebhookSubscription)
	webhooks.PATCH("/:subscription_id", api.handleUpdateWebhookSubscription)
	webhooks.DELETE("/:subscription_id", api.handleDeleteWebhookSubscription)
	webhooks.GET("/:subscription_id/deliveries", api.handleListWebhookDeliveries)
	webhooks.GET("/:subscription_id/deliveries/:delivery_id/attempts", api.handleListDeliveryAttempts)

	authed.POST("/replay", requireRole(models.RolePlatformAdmin), api.handleReplaySubject)
}
