package usecases

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type entityProjectionRepository interface {
	GetEntityProjection(ctx context.Context, exec repositories.Executor, id string) (*models.EntityProjection, error)
	UpsertEntityProjection(ctx context.Context, exec repositories.Executor, p models.EntityProjection) error
	DeleteEntityProjection(ctx context.Context, exec repositories.Executor, id string) error
}

// entityPayload is the control envelope parsed out of an entity event's data.
// The full data document is stored on the projection as-is; these fields only
// steer the mutation.
type entityPayload struct {
	EntityType string   `json:"entityType"`
	Owners     []string `json:"owners"`
	Version    int      `json:"version"`
}

type EntityMutator struct {
	repository entityProjectionRepository
}

func NewEntityMutator(repository entityProjectionRepository) EntityMutator {
	return EntityMutator{repository: repository}
}

func (m EntityMutator) Apply(ctx context.Context, tx repositories.Transaction, event models.Event) error {
	var payload entityPayload
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return errors.Wrap(models.BadParameterError, "malformed entity payload")
		}
	}

	existing, err := m.repository.GetEntityProjection(ctx, tx, event.SubjectId)
	if err != nil {
		return err
	}

	switch event.Type.Action {
	case models.ActionCreate:
		if existing != nil && !existing.Deleted {
			return errors.Wrapf(models.ErrMutationConflict, "entity %s already exists", event.SubjectId)
		}
		owners := payload.Owners
		if len(owners) == 0 {
			owners = []string{event.ActorId}
		}
		entityType := payload.EntityType
		if entityType == "" {
			entityType = event.SubjectType
		}
		projection := models.EntityProjection{
			Id:         event.SubjectId,
			EntityType: entityType,
			Data:       event.Data,
			Owners:     owners,
			Version:    1,
		}
		projection.WorkspaceId = workspaceIdFromMetadata(event.Metadata)
		if existing != nil {
			// recreating over a soft-deleted row keeps the version history
			projection.Version = existing.Version + 1
		}
		return m.repository.UpsertEntityProjection(ctx, tx, projection)

	case models.ActionUpdate:
		if existing == nil || existing.Deleted {
			return errors.Wrapf(models.ErrMutationConflict, "entity %s not found", event.SubjectId)
		}
		if payload.Version != 0 && payload.Version != existing.Version {
			return errors.Wrapf(models.ErrMutationConflict,
				"entity %s version mismatch: have %d, request targets %d",
				event.SubjectId, existing.Version, payload.Version)
		}
		updated := *existing
		updated.Data = event.Data
		updated.Version = existing.Version + 1
		if len(payload.Owners) > 0 {
			updated.Owners = payload.Owners
		}
		return m.repository.UpsertEntityProjection(ctx, tx, updated)

	case models.ActionDelete:
		if existing == nil || existing.Deleted {
			return errors.Wrapf(models.ErrMutationConflict, "entity %s not found", event.SubjectId)
		}
		return m.repository.DeleteEntityProjection(ctx, tx, event.SubjectId)

	case models.ActionRestore:
		if existing == nil {
			return errors.Wrapf(models.ErrMutationConflict, "entity %s not found", event.SubjectId)
		}
		if !existing.Deleted {
			return errors.Wrapf(models.ErrMutationConflict, "entity %s is not deleted", event.SubjectId)
		}
		restored := *existing
		restored.Deleted = false
		restored.Version = existing.Version + 1
		return m.repository.UpsertEntityProjection(ctx, tx, restored)
	}

	return errors.Wrapf(models.BadParameterError, "unsupported entity action %q", event.Type.Action)
}

func workspaceIdFromMetadata(metadata json.RawMessage) uuid.UUID {
	raw := gjson.GetBytes(metadata, "workspaceId").String()
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
