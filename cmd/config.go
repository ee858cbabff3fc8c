package cmd

import (
	"github.com/quillhq/quill-backend/infra"
	"github.com/quillhq/quill-backend/utils"
)

type appConfiguration struct {
	appName       string
	env           string
	port          string
	loggingFormat string
	sentryDsn     string

	pgConfig infra.PgConfig
}

func loadConfiguration() appConfiguration {
	return appConfiguration{
		appName:       "quill-backend",
		env:           utils.GetEnv("ENV", "development"),
		port:          utils.GetEnv("PORT", "8080"),
		loggingFormat: utils.GetEnv("LOGGING_FORMAT", "text"),
		sentryDsn:     utils.GetEnv("SENTRY_DSN", ""),
		pgConfig: infra.PgConfig{
			ConnectionString:   utils.GetEnv("PG_CONNECTION_STRING", ""),
			Database:           utils.GetEnv("PG_DATABASE", "quill"),
			Hostname:           utils.GetEnv("PG_HOSTNAME", "localhost"),
			Password:           utils.GetEnv("PG_PASSWORD", ""),
			Port:               utils.GetEnv("PG_PORT", "5432"),
			User:               utils.GetEnv("PG_USER", "postgres"),
			MaxPoolConnections: utils.GetEnv("PG_MAX_POOL_SIZE", infra.DEFAULT_MAX_CONNECTIONS),
			SslMode:            utils.GetEnv("PG_SSL_MODE", "prefer"),
		},
	}
}
