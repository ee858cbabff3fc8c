package dto

import (
	"encoding/json"
	"time"

	"github.com/quillhq/quill-backend/models"
)

type Event struct {
	Id            string          `json:"id"`
	Seq           int64           `json:"seq"`
	SchemaVersion string          `json:"schema_version"`
	Type          string          `json:"type"`
	SubjectId     string          `json:"subject_id"`
	SubjectType   string          `json:"subject_type,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	ActorId       string          `json:"actor_id"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationId string          `json:"correlation_id,omitempty"`
	CausationId   string          `json:"causation_id,omitempty"`
}

func AdaptEventDto(event models.Event) Event {
	return Event{
		Id:            event.Id.String(),
		Seq:           event.Seq,
		SchemaVersion: event.SchemaVersion,
		Type:          event.Type.String(),
		SubjectId:     event.SubjectId,
		SubjectType:   event.SubjectType,
		Data:          event.Data,
		Metadata:      event.Metadata,
		ActorId:       event.ActorId,
		Source:        string(event.Source),
		Timestamp:     event.Timestamp,
		CorrelationId: event.CorrelationId.ValueOrZero(),
		CausationId:   event.CausationId.ValueOrZero(),
	}
}

type CreateEventBody struct {
	Type        string          `json:"type" binding:"required"`
	SubjectId   string          `json:"subject_id" binding:"required"`
	SubjectType string          `json:"subject_type"`
	Data        json.RawMessage `json:"data"`
	Metadata    json.RawMessage `json:"metadata"`
	Source      string          `json:"source"`
}

type CreateEventResponse struct {
	EventId string `json:"event_id"`
}
