package cmd

import (
	"context"

	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/utils"
)

func RunMigrations() error {
	config := loadConfiguration()
	logger := utils.NewLogger(config.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	logger.InfoContext(ctx, "running migrations")
	return repositories.RunMigrations(config.pgConfig.GetConnectionString(), logger)
}
