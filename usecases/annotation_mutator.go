package usecases

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/repositories"
)

type annotationProjectionRepository interface {
	GetAnnotationProjection(ctx context.Context, exec repositories.Executor, id string) (*models.AnnotationProjection, error)
	UpsertAnnotationProjection(ctx context.Context, exec repositories.Executor, p models.AnnotationProjection) error
	DeleteAnnotationProjection(ctx context.Context, exec repositories.Executor, id string) error
}

type annotationPayload struct {
	// TargetId is the annotated subject, not the annotation's own id.
	TargetId string `json:"targetId"`
	Version  int    `json:"version"`
}

type AnnotationMutator struct {
	repository annotationProjectionRepository
}

func NewAnnotationMutator(repository annotationProjectionRepository) AnnotationMutator {
	return AnnotationMutator{repository: repository}
}

func (m AnnotationMutator) Apply(ctx context.Context, tx repositories.Transaction, event models.Event) error {
	var payload annotationPayload
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return errors.Wrap(models.BadParameterError, "malformed annotation payload")
		}
	}

	existing, err := m.repository.GetAnnotationProjection(ctx, tx, event.SubjectId)
	if err != nil {
		return err
	}

	switch event.Type.Action {
	case models.ActionCreate:
		if existing != nil {
			return errors.Wrapf(models.ErrMutationConflict, "annotation %s already exists", event.SubjectId)
		}
		if payload.TargetId == "" {
			return errors.Wrap(models.BadParameterError, "annotation requires targetId")
		}
		return m.repository.UpsertAnnotationProjection(ctx, tx, models.AnnotationProjection{
			Id:          event.SubjectId,
			WorkspaceId: workspaceIdFromMetadata(event.Metadata),
			SubjectId:   payload.TargetId,
			Data:        event.Data,
			Version:     1,
		})

	case models.ActionUpdate:
		if existing == nil {
			return errors.Wrapf(models.ErrMutationConflict, "annotation %s not found", event.SubjectId)
		}
		if payload.Version != 0 && payload.Version != existing.Version {
			return errors.Wrapf(models.ErrMutationConflict,
				"annotation %s version mismatch: have %d, request targets %d",
				event.SubjectId, existing.Version, payload.Version)
		}
		updated := *existing
		updated.Data = event.Data
		updated.Version = existing.Version + 1
		return m.repository.UpsertAnnotationProjection(ctx, tx, updated)

	case models.ActionDelete:
		if existing == nil {
			return errors.Wrapf(models.ErrMutationConflict, "annotation %s not found", event.SubjectId)
		}
		return m.repository.DeleteAnnotationProjection(ctx, tx, event.SubjectId)
	}

	return errors.Wrapf(models.BadParameterError, "unsupported annotation action %q", event.Type.Action)
}
