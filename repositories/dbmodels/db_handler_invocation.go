package dbmodels

import (
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

type DbHandlerInvocation struct {
	Id         uuid.UUID `db:"id"`
	HandlerKey string    `db:"handler_key"`
	EventId    uuid.UUID `db:"event_id"`
	EventSeq   int64     `db:"event_seq"`
	SubjectId  string    `db:"subject_id"`
	Status     string    `db:"status"`
	Attempts   int       `db:"attempts"`
	LastError  string    `db:"last_error"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

const TABLE_HANDLER_INVOCATIONS = "handler_invocations"

var SelectHandlerInvocationColumns = utils.ColumnList[DbHandlerInvocation]()

func AdaptHandlerInvocation(db DbHandlerInvocation) (models.HandlerInvocation, error) {
	return models.HandlerInvocation{
		Id:         db.Id,
		HandlerKey: db.HandlerKey,
		EventId:    db.EventId,
		EventSeq:   db.EventSeq,
		SubjectId:  db.SubjectId,
		Status:     models.HandlerInvocationStatus(db.Status),
		Attempts:   db.Attempts,
		LastError:  db.LastError,
		CreatedAt:  db.CreatedAt,
		UpdatedAt:  db.UpdatedAt,
	}, nil
}
