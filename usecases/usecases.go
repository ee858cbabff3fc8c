package usecases

import (
	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
	"github.com/quillhq/quill-backend/usecases/executor_factory"
)

type Repositories struct {
	ExecutorGetter repositories.ExecutorGetter
	QuillDb        repositories.QuillDbRepository
	TaskQueue      repositories.TaskQueueRepository
}

// Usecases builds the pipeline components over a shared repository set. Each
// New* method returns a ready-to-use component wired to the same database
// pool and task queue.
type Usecases struct {
	Repositories
	Registry models.EventRegistry

	executorFactory executor_factory.DbExecutorFactory
}

func NewUsecases(repos Repositories) Usecases {
	return Usecases{
		Repositories:    repos,
		Registry:        models.NewEventRegistry(),
		executorFactory: executor_factory.NewDbExecutorFactory(repos.ExecutorGetter),
	}
}

func (u Usecases) NewExecutorFactory() executor_factory.ExecutorFactory {
	return u.executorFactory
}

func (u Usecases) NewEventPublisher() EventPublisher {
	return NewEventPublisher(u.Registry, u.QuillDb, u.TaskQueue,
		u.executorFactory, u.executorFactory)
}

func (u Usecases) NewEventUsecase() EventUsecase {
	return NewEventUsecase(u.NewEventPublisher(), u.QuillDb, u.executorFactory)
}

func (u Usecases) NewPermissionValidator() PermissionValidator {
	return NewPermissionValidator(u.QuillDb, u.NewEventPublisher(),
		u.executorFactory, u.executorFactory)
}

func (u Usecases) NewProposalManager() ProposalManager {
	return NewProposalManager(u.QuillDb, u.NewEventPublisher(),
		u.executorFactory, u.executorFactory)
}

func (u Usecases) domainMutators() map[models.TableFamily]SubjectMutator {
	return map[models.TableFamily]SubjectMutator{
		models.TableEntities:    NewEntityMutator(u.QuillDb),
		models.TableRelations:   NewRelationMutator(u.QuillDb),
		models.TableAnnotations: NewAnnotationMutator(u.QuillDb),
		models.TableWorkspaces:  NewWorkspaceMutator(u.QuillDb),
	}
}

func (u Usecases) NewDomainWorkers() []DomainWorker {
	publisher := u.NewEventPublisher()
	workers := make([]DomainWorker, 0, len(u.Registry.TableFamilies()))
	mutators := u.domainMutators()
	for _, family := range u.Registry.TableFamilies() {
		workers = append(workers, NewDomainWorker(
			family, mutators[family], u.QuillDb, publisher, u.executorFactory))
	}
	return workers
}

func (u Usecases) NewWebhookBroker() WebhookBroker {
	return NewWebhookBroker(u.QuillDb, u.TaskQueue, u.executorFactory, u.executorFactory)
}

func (u Usecases) NewWebhookDeliverySender() WebhookDeliverySender {
	return NewWebhookDeliverySender(u.QuillDb, u.TaskQueue, u.executorFactory, u.executorFactory)
}

func (u Usecases) NewWebhookSubscriptionUsecase() WebhookSubscriptionUsecase {
	return NewWebhookSubscriptionUsecase(u.QuillDb, u.executorFactory)
}

func (u Usecases) NewPolicyUsecase() PolicyUsecase {
	return NewPolicyUsecase(u.Registry, u.QuillDb, u.executorFactory)
}

func (u Usecases) NewReplayUsecase() ReplayUsecase {
	mutators := u.domainMutators()
	// workspaces are not projected, so they are not replayable
	delete(mutators, models.TableWorkspaces)
	return NewReplayUsecase(u.QuillDb, mutators, u.executorFactory)
}

func (u Usecases) NewDispatchSweeper() DispatchSweeper {
	return NewDispatchSweeper(u.QuillDb, u.TaskQueue, u.executorFactory)
}

// NewDispatcher builds the dispatcher with every pipeline subscriber
// registered: validator on .requested, one worker per table family on
// .approved, the webhook broker on .validated.
func (u Usecases) NewDispatcher() *Dispatcher {
	dispatcher := NewDispatcher(u.QuillDb, u.TaskQueue, u.executorFactory, u.executorFactory)

	validator := u.NewPermissionValidator()
	dispatcher.Subscribe("*.*.requested", HandlerKeyPermissionValidator, validator.HandleRequestedEvent)

	for _, worker := range u.NewDomainWorkers() {
		dispatcher.Subscribe(worker.SubscriptionPattern(), worker.HandlerKey(), worker.HandleApprovedEvent)
	}

	broker := u.NewWebhookBroker()
	dispatcher.Subscribe("*.*.validated", HandlerKeyWebhookBroker, broker.HandleValidatedEvent)

	return dispatcher
}
