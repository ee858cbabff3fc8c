package usecases

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/infra"
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

// HandlerFunc processes one event. The invocation worker gives it a bounded
// context and retries it in isolation from other handlers.
type HandlerFunc func(ctx context.Context, event models.Event) error

type subscription struct {
	pattern string
	key     string
}

type dispatcherRepository interface {
	CreateHandlerInvocation(ctx context.Context, exec repositories.Executor, inv models.HandlerInvocation) error
	HandlerInvocationExists(ctx context.Context, exec repositories.Executor, handlerKey string, eventId uuid.UUID) (bool, error)
	MarkEventDispatched(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) error
}

type dispatcherTaskQueue interface {
	EnqueueHandlerInvocation(ctx context.Context, tx repositories.Transaction, args models.HandlerInvocationArgs) error
}

// Dispatcher routes appended events to subscribed handlers. Subscriptions
// are registered once at startup and immutable afterwards; dispatch itself
// never calls a handler inline, it fans out one durable invocation per
// matching handler.
type Dispatcher struct {
	subscriptions []subscription
	handlers      map[string]HandlerFunc

	repository         dispatcherRepository
	taskQueue          dispatcherTaskQueue
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
}

func NewDispatcher(
	repository dispatcherRepository,
	taskQueue dispatcherTaskQueue,
	executorFactory executor_factory.ExecutorFactory,
	transactionFactory executor_factory.TransactionFactory,
) *Dispatcher {
	return &Dispatcher{
		handlers:           make(map[string]HandlerFunc),
		repository:         repository,
		taskQueue:          taskQueue,
		executorFactory:    executorFactory,
		transactionFactory: transactionFactory,
	}
}

func (d *Dispatcher) Subscribe(pattern string, key string, handler HandlerFunc) {
	if _, exists := d.handlers[key]; exists {
		panic("duplicate handler key: " + key)
	}
	d.subscriptions = append(d.subscriptions, subscription{pattern: pattern, key: key})
	d.handlers[key] = handler
}

func (d *Dispatcher) Handler(key string) (HandlerFunc, bool) {
	handler, ok := d.handlers[key]
	return handler, ok
}

// SubscriptionPattern returns the pattern a handler key was registered with.
func (d *Dispatcher) SubscriptionPattern(key string) (string, bool) {
	for _, sub := range d.subscriptions {
		if sub.key == key {
			return sub.pattern, true
		}
	}
	return "", false
}

// MatchingHandlerKeys returns the keys of all handlers subscribed to the
// given event type, in registration order.
func (d *Dispatcher) MatchingHandlerKeys(eventType string) []string {
	var keys []string
	for _, sub := range d.subscriptions {
		if MatchEventType(sub.pattern, eventType) {
			keys = append(keys, sub.key)
		}
	}
	return keys
}

// Dispatch creates one invocation row and job per subscribed handler.
// Re-dispatching the same event is a no-op for handlers that already have an
// invocation, so the at-least-once signal never duplicates handler work.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event) error {
	logger := utils.LoggerFromContext(ctx)
	exec := d.executorFactory.NewExecutor()

	for _, key := range d.MatchingHandlerKeys(event.Type.String()) {
		exists, err := d.repository.HandlerInvocationExists(ctx, exec, key, event.Id)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		invocation := models.HandlerInvocation{
			Id:         uuid.Must(uuid.NewV7()),
			HandlerKey: key,
			EventId:    event.Id,
			EventSeq:   event.Seq,
			SubjectId:  event.SubjectId,
			Status:     models.HandlerInvocationPending,
		}

		err = d.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
			if err := d.repository.CreateHandlerInvocation(ctx, tx, invocation); err != nil {
				return err
			}
			return d.taskQueue.EnqueueHandlerInvocation(ctx, tx, models.HandlerInvocationArgs{
				InvocationId: invocation.Id,
				HandlerKey:   key,
				EventId:      event.Id,
			})
		})
		if err != nil {
			if repositories.IsUniqueViolationError(err) {
				// concurrent dispatch of the same event
				continue
			}
			return errors.Wrapf(err, "failed to create invocation of %s for event %s", key, event.Id)
		}

		infra.EventsDispatched.WithLabelValues(key).Inc()
		logger.DebugContext(ctx, "created handler invocation",
			"handler", key, "event_id", event.Id, "event_type", event.Type.String())
	}

	return d.repository.MarkEventDispatched(ctx, exec, event.Id)
}

// MatchEventType matches a dotted event type against a subscription pattern.
// Segments are compared one by one: "*" matches exactly one segment, and a
// trailing "*" matches all remaining segments. Examples:
//
//	entities.create.requested  matches itself
//	entities.*                 matches entities.create.requested
//	*.*.requested              matches entities.create.requested
func MatchEventType(pattern string, eventType string) bool {
	if pattern == eventType || pattern == "*" {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	typeParts := strings.Split(eventType, ".")

	for i, part := range patternParts {
		if part == "*" && i == len(patternParts)-1 {
			// trailing wildcard swallows the rest, but requires at least
			// one segment to remain
			return len(typeParts) > i
		}
		if i >= len(typeParts) {
			return false
		}
		if part != "*" && part != typeParts[i] {
			return false
		}
	}
	return len(patternParts) == len(typeParts)
}
