package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

type DbEntityProjection struct {
	Id          string          `db:"id"`
	WorkspaceId uuid.UUID       `db:"workspace_id"`
	EntityType  string          `db:"entity_type"`
	Data        json.RawMessage `db:"data"`
	Owners      []string        `db:"owners"`
	Version     int             `db:"version"`
	Deleted     bool            `db:"deleted"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

const TABLE_ENTITY_PROJECTIONS = "entity_projections"

var SelectEntityProjectionColumns = utils.ColumnList[DbEntityProjection]()

func AdaptEntityProjection(db DbEntityProjection) (models.EntityProjection, error) {
	return models.EntityProjection{
		Id:          db.Id,
		WorkspaceId: db.WorkspaceId,
		EntityType:  db.EntityType,
		Data:        db.Data,
		Owners:      db.Owners,
		Version:     db.Version,
		Deleted:     db.Deleted,
		UpdatedAt:   db.UpdatedAt,
	}, nil
}

type DbRelationProjection struct {
	Id           string          `db:"id"`
	WorkspaceId  uuid.UUID       `db:"workspace_id"`
	FromId       string          `db:"from_id"`
	ToId         string          `db:"to_id"`
	RelationType string          `db:"relation_type"`
	Data         json.RawMessage `db:"data"`
	Version      int             `db:"version"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

const TABLE_RELATION_PROJECTIONS = "relation_projections"

var SelectRelationProjectionColumns = utils.ColumnList[DbRelationProjection]()

func AdaptRelationProjection(db DbRelationProjection) (models.RelationProjection, error) {
	return models.RelationProjection{
		Id:           db.Id,
		WorkspaceId:  db.WorkspaceId,
		FromId:       db.FromId,
		ToId:         db.ToId,
		RelationType: db.RelationType,
		Data:         db.Data,
		Version:      db.Version,
		UpdatedAt:    db.UpdatedAt,
	}, nil
}

type DbAnnotationProjection struct {
	Id          string          `db:"id"`
	WorkspaceId uuid.UUID       `db:"workspace_id"`
	SubjectId   string          `db:"subject_id"`
	Data        json.RawMessage `db:"data"`
	Version     int             `db:"version"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

const TABLE_ANNOTATION_PROJECTIONS = "annotation_projections"

var SelectAnnotationProjectionColumns = utils.ColumnList[DbAnnotationProjection]()

func AdaptAnnotationProjection(db DbAnnotationProjection) (models.AnnotationProjection, error) {
	return models.AnnotationProjection{
		Id:          db.Id,
		WorkspaceId: db.WorkspaceId,
		SubjectId:   db.SubjectId,
		Data:        db.Data,
		Version:     db.Version,
		UpdatedAt:   db.UpdatedAt,
	}, nil
}

type DbWorkspace struct {
	Id              uuid.UUID       `db:"id"`
	Name            string          `db:"name"`
	OwnerId         string          `db:"owner_id"`
	PolicyOverrides json.RawMessage `db:"policy_overrides"`
	StrictPolicy    bool            `db:"strict_policy"`
	CreatedAt       time.Time       `db:"created_at"`
}

const TABLE_WORKSPACES = "workspaces"

var SelectWorkspaceColumns = utils.ColumnList[DbWorkspace]()

func AdaptWorkspace(db DbWorkspace) (models.Workspace, error) {
	return models.Workspace{
		Id:              db.Id,
		Name:            db.Name,
		OwnerId:         db.OwnerId,
		PolicyOverrides: db.PolicyOverrides,
		StrictPolicy:    db.StrictPolicy,
		CreatedAt:       db.CreatedAt,
	}, nil
}
