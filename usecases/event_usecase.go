package usecases

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
	"github.com/quillhq/quill-backend/utils"
)

type eventQueryRepository interface {
	GetEventById(ctx context.Context, exec repositories.Executor, eventId uuid.UUID) (models.Event, error)
	ListEvents(ctx context.Context, exec repositories.Executor, filters models.EventFilters, limit int) ([]models.Event, error)
}

// EventUsecase is the API-facing surface of the event log: accepting intents
// and serving audit reads. Intents are stamped with the caller's identity and
// workspace before entering the pipeline.
type EventUsecase struct {
	publisher       EventPublisher
	repository      eventQueryRepository
	executorFactory executor_factory.ExecutorFactory
}

func NewEventUsecase(
	publisher EventPublisher,
	repository eventQueryRepository,
	executorFactory executor_factory.ExecutorFactory,
) EventUsecase {
	return EventUsecase{
		publisher:       publisher,
		repository:      repository,
		executorFactory: executorFactory,
	}
}

type AppendIntentInput struct {
	Type        models.EventType
	SubjectId   string
	SubjectType string
	Data        json.RawMessage
	Metadata    json.RawMessage
	Source      models.EventSource
}

// AppendIntent records a .requested event on behalf of the caller. Only
// intents enter through the API; later stages are appended by the pipeline
// itself.
func (uc EventUsecase) AppendIntent(ctx context.Context, input AppendIntentInput) (uuid.UUID, error) {
	creds, ok := utils.CredentialsFromCtx(ctx)
	if !ok {
		return uuid.Nil, errors.Wrap(models.UnAuthorizedError, "missing credentials")
	}
	if creds.WorkspaceId == uuid.Nil {
		// proposals and projections both key on the workspace, so an intent
		// without one can never complete the pipeline
		return uuid.Nil, errors.Wrap(models.BadParameterError, "a workspace is required to append events")
	}
	if input.Type.Stage != models.StageRequested {
		return uuid.Nil, errors.Wrap(models.BadParameterError,
			"only .requested events can be appended through the API")
	}
	if input.SubjectId == "" {
		return uuid.Nil, errors.Wrap(models.BadParameterError, "subjectId is required")
	}

	metadata, err := stampWorkspaceId(input.Metadata, creds.WorkspaceId)
	if err != nil {
		return uuid.Nil, err
	}

	source := input.Source
	if source == "" {
		source = models.SourceUserApi
	}

	return uc.publisher.Append(ctx, AppendEventInput{
		Type:        input.Type,
		SubjectId:   input.SubjectId,
		SubjectType: input.SubjectType,
		Data:        input.Data,
		Metadata:    metadata,
		ActorId:     creds.ActorId,
		Source:      source,
	})
}

func (uc EventUsecase) GetEvent(ctx context.Context, eventId uuid.UUID) (models.Event, error) {
	return uc.repository.GetEventById(ctx, uc.executorFactory.NewExecutor(), eventId)
}

func (uc EventUsecase) ListEvents(
	ctx context.Context,
	filters models.EventFilters,
	limit int,
) ([]models.Event, error) {
	return uc.repository.ListEvents(ctx, uc.executorFactory.NewExecutor(), filters, limit)
}

// stampWorkspaceId records the caller's workspace in the event metadata,
// where the validator and the webhook broker read it back.
func stampWorkspaceId(metadata json.RawMessage, workspaceId uuid.UUID) (json.RawMessage, error) {
	if workspaceId == uuid.Nil {
		return metadata, nil
	}
	values := map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &values); err != nil {
			return nil, errors.Wrap(models.BadParameterError, "metadata must be a JSON object")
		}
	}
	values["workspaceId"] = workspaceId.String()
	return json.Marshal(values)
}
