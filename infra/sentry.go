package infra

import (
	"log"

	"github.com/getsentry/sentry-go"
)

func SetupSentry(dsn string, env string) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:           dsn,
		Environment:   env,
		EnableTracing: false,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
}
