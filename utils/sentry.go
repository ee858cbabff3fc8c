package utils

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// LogAndReportSentryError is the single funnel for operational alerts:
// dead-lettered permission checks, exhausted webhook deliveries, lost
// dispatch signals.
func LogAndReportSentryError(ctx context.Context, err error) {
	logger := LoggerFromContext(ctx)
	logger.ErrorContext(ctx, err.Error())

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
