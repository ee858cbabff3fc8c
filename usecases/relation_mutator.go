package usecases

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type relationProjectionRepository interface {
	GetRelationProjection(ctx context.Context, exec repositories.Executor, id string) (*models.RelationProjection, error)
	UpsertRelationProjection(ctx context.Context, exec repositories.Executor, p models.RelationProjection) error
	DeleteRelationProjection(ctx context.Context, exec repositories.Executor, id string) error
}

type relationPayload struct {
	FromId       string `json:"fromId"`
	ToId         string `json:"toId"`
	RelationType string `json:"relationType"`
	Version      int    `json:"version"`
}

type RelationMutator struct {
	repository relationProjectionRepository
}

func NewRelationMutator(repository relationProjectionRepository) RelationMutator {
	return RelationMutator{repository: repository}
}

func (m RelationMutator) Apply(ctx context.Context, tx repositories.Transaction, event models.Event) error {
	var payload relationPayload
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return errors.Wrap(models.BadParameterError, "malformed relation payload")
		}
	}

	existing, err := m.repository.GetRelationProjection(ctx, tx, event.SubjectId)
	if err != nil {
		return err
	}

	switch event.Type.Action {
	case models.ActionCreate:
		if existing != nil {
			return errors.Wrapf(models.ErrMutationConflict, "relation %s already exists", event.SubjectId)
		}
		if payload.FromId == "" || payload.ToId == "" {
			return errors.Wrap(models.BadParameterError, "relation requires fromId and toId")
		}
		return m.repository.UpsertRelationProjection(ctx, tx, models.RelationProjection{
			Id:           event.SubjectId,
			WorkspaceId:  workspaceIdFromMetadata(event.Metadata),
			FromId:       payload.FromId,
			ToId:         payload.ToId,
			RelationType: payload.RelationType,
			Data:         event.Data,
			Version:      1,
		})

	case models.ActionUpdate:
		if existing == nil {
			return errors.Wrapf(models.ErrMutationConflict, "relation %s not found", event.SubjectId)
		}
		if payload.Version != 0 && payload.Version != existing.Version {
			return errors.Wrapf(models.ErrMutationConflict,
				"relation %s version mismatch: have %d, request targets %d",
				event.SubjectId, existing.Version, payload.Version)
		}
		updated := *existing
		updated.Data = event.Data
		updated.Version = existing.Version + 1
		return m.repository.UpsertRelationProjection(ctx, tx, updated)

	case models.ActionDelete:
		if existing == nil {
			return errors.Wrapf(models.ErrMutationConflict, "relation %s not found", event.SubjectId)
		}
		return m.repository.DeleteRelationProjection(ctx, tx, event.SubjectId)
	}

	return errors.Wrapf(models.BadParameterError, "unsupported relation action %q", event.Type.Action)
}
