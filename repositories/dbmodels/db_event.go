package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

type DbEvent struct {
	Id              uuid.UUID       `db:"id"`
	Seq             int64           `db:"seq"`
	SchemaVersion   string          `db:"schema_version"`
	EventType       string          `db:"event_type"`
	SubjectId       string          `db:"subject_id"`
	SubjectType     string          `db:"subject_type"`
	Data            json.RawMessage `db:"data"`
	Metadata        json.RawMessage `db:"metadata"`
	ActorId         string          `db:"actor_id"`
	Source          string          `db:"source"`
	Timestamp       time.Time       `db:"timestamp"`
	CorrelationId   null.String     `db:"correlation_id"`
	CausationId     null.String     `db:"causation_id"`
	DispatchPending bool            `db:"dispatch_pending"`
}

const TABLE_EVENTS = "events"

var SelectEventColumns = utils.ColumnList[DbEvent]()

func AdaptEvent(db DbEvent) (models.Event, error) {
	eventType, err := models.ParseEventType(db.EventType)
	if err != nil {
		return models.Event{}, err
	}
	source, err := models.EventSourceFrom(db.Source)
	if err != nil {
		return models.Event{}, err
	}

	return models.Event{
		Id:              db.Id,
		Seq:             db.Seq,
		SchemaVersion:   db.SchemaVersion,
		Type:            eventType,
		SubjectId:       db.SubjectId,
		SubjectType:     db.SubjectType,
		Data:            db.Data,
		Metadata:        db.Metadata,
		ActorId:         db.ActorId,
		Source:          source,
		Timestamp:       db.Timestamp,
		CorrelationId:   db.CorrelationId,
		CausationId:     db.CausationId,
		DispatchPending: db.DispatchPending,
	}, nil
}
