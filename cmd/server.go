package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/quillhq/quill-backend/api"
	"github.com/quillhq/quill-backend/infra"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases"
	"github.com/quillhq/quill-backend/utils"
)

// RunServer starts the HTTP API. The server only appends intents and serves
// reads; all pipeline processing happens in the worker process.
func RunServer() error {
	config := loadConfiguration()

	logger := utils.NewLogger(config.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	infra.SetupSentry(config.sentryDsn, config.env)
	defer sentry.Flush(3 * time.Second)

	pool, err := infra.NewPostgresConnectionPool(ctx,
		config.pgConfig.GetConnectionString(), config.pgConfig.MaxPoolConnections)
	if err != nil {
		return err
	}

	// Insert-only river client: the API enqueues dispatch signals but never
	// runs jobs.
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		return err
	}

	ucs := usecases.NewUsecases(usecases.Repositories{
		ExecutorGetter: repositories.NewExecutorGetter(pool),
		QuillDb:        repositories.QuillDbRepository{},
		TaskQueue:      repositories.NewTaskQueueRepository(riverClient),
	})

	apiConfig := api.Configuration{
		Env:     config.env,
		AppName: config.appName,
		Port:    config.port,
	}
	router := api.InitRouterMiddlewares(ctx, apiConfig)
	server := api.New(apiConfig, router, ucs).Server()

	notify, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.InfoContext(ctx, "starting server", "port", config.port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "server error", "error", err)
		}
	}()

	<-notify.Done()
	logger.InfoContext(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
