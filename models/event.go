package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

const EventSchemaVersion = "v1"

// EventStage is the lifecycle stage encoded in the last segment of an event
// type. "completed" is accepted on the wire as a legacy alias of "validated"
// and normalized at parse time.
type EventStage string

const (
	StageRequested EventStage = "requested"
	StageApproved  EventStage = "approved"
	StageRejected  EventStage = "rejected"
	StageValidated EventStage = "validated"
	StageFailed    EventStage = "failed"
)

func (s EventStage) IsTerminal() bool {
	switch s {
	case StageRejected, StageValidated, StageFailed:
		return true
	}
	return false
}

func EventStageFrom(s string) (EventStage, error) {
	switch s {
	case "requested":
		return StageRequested, nil
	case "approved":
		return StageApproved, nil
	case "rejected":
		return StageRejected, nil
	case "validated", "completed":
		return StageValidated, nil
	case "failed":
		return StageFailed, nil
	}
	return "", errors.Wrap(BadParameterError, fmt.Sprintf("unknown event stage %q", s))
}

// EventSource identifies the origin of an intent. AI-authored events
// (SourceExternalIntelligence) always go through human review.
type EventSource string

const (
	SourceUserApi              EventSource = "user-api"
	SourceAutomation           EventSource = "automation"
	SourceSync                 EventSource = "sync"
	SourceMigration            EventSource = "migration"
	SourceSystem               EventSource = "system"
	SourceExternalIntelligence EventSource = "external-intelligence"
)

func EventSourceFrom(s string) (EventSource, error) {
	switch EventSource(s) {
	case SourceUserApi, SourceAutomation, SourceSync, SourceMigration,
		SourceSystem, SourceExternalIntelligence:
		return EventSource(s), nil
	}
	return "", errors.Wrap(BadParameterError, fmt.Sprintf("unknown event source %q", s))
}

// EventType is the decoded form of the dotted "{table}.{action}.{stage}"
// wire type. It is parsed once at the edge and carried as a value so that
// routing never re-matches raw strings.
type EventType struct {
	Table  TableFamily
	Action Action
	Stage  EventStage
}

func (t EventType) String() string {
	return fmt.Sprintf("%s.%s.%s", t.Table, t.Action, t.Stage)
}

func (t EventType) WithStage(stage EventStage) EventType {
	t.Stage = stage
	return t
}

func ParseEventType(s string) (EventType, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return EventType{}, errors.Wrap(BadParameterError,
			fmt.Sprintf("event type %q must have the form table.action.stage", s))
	}

	stage, err := EventStageFrom(parts[2])
	if err != nil {
		return EventType{}, err
	}

	return EventType{
		Table:  TableFamily(parts[0]),
		Action: Action(parts[1]),
		Stage:  stage,
	}, nil
}

// Event is the atomic fact of the pipeline. Rows are append-only: an event is
// written once by the publisher and never updated, except for the
// DispatchPending reconciliation flag which is owned by the dispatch path.
type Event struct {
	Id            uuid.UUID
	Seq           int64
	SchemaVersion string
	Type          EventType
	SubjectId     string
	SubjectType   string
	Data          json.RawMessage
	Metadata      json.RawMessage
	ActorId       string
	Source        EventSource
	Timestamp     time.Time
	CorrelationId null.String
	CausationId   null.String

	// DispatchPending is true until the dispatch signal has been handed to
	// the task queue. The sweeper re-signals stale pending events.
	DispatchPending bool
}

type EventFilters struct {
	SubjectId     string
	SubjectType   string
	Type          string
	CorrelationId string
	ActorId       string
}
