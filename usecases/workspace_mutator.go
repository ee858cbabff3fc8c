package usecases

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type workspaceMutatorRepository interface {
	GetWorkspaceById(ctx context.Context, exec repositories.Executor, workspaceId uuid.UUID) (models.Workspace, error)
	CreateWorkspace(ctx context.Context, exec repositories.Executor, workspace models.Workspace) error
	UpdateWorkspace(ctx context.Context, exec repositories.Executor, workspace models.Workspace) error
	DeleteWorkspace(ctx context.Context, exec repositories.Executor, workspaceId uuid.UUID) error
}

type workspacePayload struct {
	Name            string          `json:"name"`
	OwnerId         string          `json:"ownerId"`
	PolicyOverrides json.RawMessage `json:"policyOverrides"`
	StrictPolicy    bool            `json:"strictPolicy"`
}

// WorkspaceMutator mutates the workspaces table itself. All workspace
// actions require review by global policy, so every event reaching this
// mutator went through a proposal.
type WorkspaceMutator struct {
	repository workspaceMutatorRepository
}

func NewWorkspaceMutator(repository workspaceMutatorRepository) WorkspaceMutator {
	return WorkspaceMutator{repository: repository}
}

func (m WorkspaceMutator) Apply(ctx context.Context, tx repositories.Transaction, event models.Event) error {
	workspaceId, err := uuid.Parse(event.SubjectId)
	if err != nil {
		return errors.Wrap(models.BadParameterError, "workspace subject id must be a uuid")
	}

	var payload workspacePayload
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return errors.Wrap(models.BadParameterError, "malformed workspace payload")
		}
	}

	existing, err := m.repository.GetWorkspaceById(ctx, tx, workspaceId)
	exists := err == nil
	if err != nil && !errors.Is(err, models.NotFoundError) {
		return err
	}

	switch event.Type.Action {
	case models.ActionCreate:
		if exists {
			return errors.Wrapf(models.ErrMutationConflict, "workspace %s already exists", workspaceId)
		}
		if payload.Name == "" {
			return errors.Wrap(models.BadParameterError, "workspace requires a name")
		}
		ownerId := payload.OwnerId
		if ownerId == "" {
			ownerId = event.ActorId
		}
		return m.repository.CreateWorkspace(ctx, tx, models.Workspace{
			Id:              workspaceId,
			Name:            payload.Name,
			OwnerId:         ownerId,
			PolicyOverrides: payload.PolicyOverrides,
			StrictPolicy:    payload.StrictPolicy,
		})

	case models.ActionUpdate:
		if !exists {
			return errors.Wrapf(models.ErrMutationConflict, "workspace %s not found", workspaceId)
		}
		updated := existing
		if payload.Name != "" {
			updated.Name = payload.Name
		}
		if payload.PolicyOverrides != nil {
			updated.PolicyOverrides = payload.PolicyOverrides
		}
		updated.StrictPolicy = payload.StrictPolicy
		return m.repository.UpdateWorkspace(ctx, tx, updated)

	case models.ActionDelete:
		if !exists {
			return errors.Wrapf(models.ErrMutationConflict, "workspace %s not found", workspaceId)
		}
		return m.repository.DeleteWorkspace(ctx, tx, workspaceId)
	}

	return errors.Wrapf(models.BadParameterError, "unsupported workspace action %q", event.Type.Action)
}
