package repositories

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories/dbmodels"
)

func (repo QuillDbRepository) GetWorkspaceById(ctx context.Context, exec Executor, workspaceId uuid.UUID) (models.Workspace, error) {
	return SqlToModel(ctx, exec, NewQueryBuilder().
		Select(dbmodels.SelectWorkspaceColumns...).
		From(dbmodels.TABLE_WORKSPACES).
		Where(squirrel.Eq{"id": workspaceId}),
		dbmodels.AdaptWorkspace,
	)
}

func (repo QuillDbRepository) CreateWorkspace(ctx context.Context, exec Executor, workspace models.Workspace) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Insert(dbmodels.TABLE_WORKSPACES).
		Columns("id", "name", "owner_id", "policy_overrides", "strict_policy").
		Values(workspace.Id, workspace.Name, workspace.OwnerId,
			workspace.PolicyOverrides, workspace.StrictPolicy),
	)
	return err
}

func (repo QuillDbRepository) UpdateWorkspace(ctx context.Context, exec Executor, workspace models.Workspace) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Update(dbmodels.TABLE_WORKSPACES).
		Set("name", workspace.Name).
		Set("policy_overrides", workspace.PolicyOverrides).
		Set("strict_policy", workspace.StrictPolicy).
		Where(squirrel.Eq{"id": workspace.Id}),
	)
	return err
}

func (repo QuillDbRepository) DeleteWorkspace(ctx context.Context, exec Executor, workspaceId uuid.UUID) error {
	_, err := ExecBuilder(ctx, exec, NewQueryBuilder().
		Delete(dbmodels.TABLE_WORKSPACES).
		Where(squirrel.Eq{"id": workspaceId}),
	)
	return err
}

// GetWorkspacePolicy loads and decodes the workspace override tier. A lookup
// or decode failure is wrapped in ErrValidationPolicy so the permission check
// retries instead of silently approving or denying.
func (repo QuillDbRepository) GetWorkspacePolicy(ctx context.Context, exec Executor, workspaceId uuid.UUID) (models.WorkspacePolicy, error) {
	workspace, err := repo.GetWorkspaceById(ctx, exec, workspaceId)
	if err != nil {
		return models.WorkspacePolicy{}, errors.Wrap(models.ErrValidationPolicy, err.Error())
	}

	policy := models.WorkspacePolicy{
		WorkspaceId: workspaceId,
		Overrides:   map[models.TableFamily]map[models.Action]models.PolicyMode{},
		Strict:      workspace.StrictPolicy,
	}

	if len(workspace.PolicyOverrides) == 0 {
		return policy, nil
	}

	var raw map[string]map[string]string
	if err := json.Unmarshal(workspace.PolicyOverrides, &raw); err != nil {
		return models.WorkspacePolicy{}, errors.Wrap(models.ErrValidationPolicy,
			"could not decode workspace policy overrides")
	}

	for table, actions := range raw {
		modes := make(map[models.Action]models.PolicyMode, len(actions))
		for action, mode := range actions {
			parsed, ok := models.PolicyModeFrom(mode)
			if !ok {
				return models.WorkspacePolicy{}, errors.Wrapf(models.ErrValidationPolicy,
					"invalid policy mode %q for %s.%s", mode, table, action)
			}
			modes[models.Action(action)] = parsed
		}
		policy.Overrides[models.TableFamily(table)] = modes
	}

	return policy, nil
}
