package usecases

import (
	"context"

	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

type policyUsecaseRepository interface {
	GetWorkspacePolicy(ctx context.Context, exec repositories.Executor, workspaceId uuid.UUID) (models.WorkspacePolicy, error)
}

// PolicyUsecase serves dry-run policy resolution: what would happen to a
// request, without appending anything.
type PolicyUsecase struct {
	registry        models.EventRegistry
	repository      policyUsecaseRepository
	executorFactory executor_factory.ExecutorFactory
}

func NewPolicyUsecase(
	registry models.EventRegistry,
	repository policyUsecaseRepository,
	executorFactory executor_factory.ExecutorFactory,
) PolicyUsecase {
	return PolicyUsecase{
		registry:        registry,
		repository:      repository,
		executorFactory: executorFactory,
	}
}

type PolicyDryRunInput struct {
	WorkspaceId      uuid.UUID
	Table            models.TableFamily
	Action           models.Action
	Source           models.EventSource
	ActorIsSoleOwner bool
}

func (uc PolicyUsecase) DryRun(ctx context.Context, input PolicyDryRunInput) (models.PolicyDecision, error) {
	if err := uc.registry.Validate(models.EventType{
		Table:  input.Table,
		Action: input.Action,
		Stage:  models.StageRequested,
	}); err != nil {
		return models.PolicyDecision{}, err
	}

	workspacePolicy := models.WorkspacePolicy{}
	if input.WorkspaceId != uuid.Nil {
		var err error
		workspacePolicy, err = uc.repository.GetWorkspacePolicy(ctx,
			uc.executorFactory.NewExecutor(), input.WorkspaceId)
		if err != nil {
			return models.PolicyDecision{}, err
		}
	}

	return ResolvePolicy(PolicyInput{
		Table:            input.Table,
		Action:           input.Action,
		Source:           input.Source,
		Workspace:        workspacePolicy,
		ActorIsSoleOwner: input.ActorIsSoleOwner,
	}), nil
}
