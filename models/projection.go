package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityProjection is the read model for the entities table family. It is
// written exclusively by the entity domain worker and fully reconstructible
// by replaying approved events in sequence order.
type EntityProjection struct {
	Id          string
	WorkspaceId uuid.UUID
	EntityType  string
	Data        json.RawMessage
	Owners      []string
	Version     int
	Deleted     bool
	UpdatedAt   time.Time
}

type RelationProjection struct {
	Id           string
	WorkspaceId  uuid.UUID
	FromId       string
	ToId         string
	RelationType string
	Data         json.RawMessage
	Version      int
	UpdatedAt    time.Time
}

type AnnotationProjection struct {
	Id          string
	WorkspaceId uuid.UUID
	SubjectId   string
	Data        json.RawMessage
	Version     int
	UpdatedAt   time.Time
}

// Workspace holds workspace identity plus the owner-configured policy
// override map consumed by the permission validator.
type Workspace struct {
	Id              uuid.UUID
	Name            string
	OwnerId         string
	PolicyOverrides json.RawMessage
	StrictPolicy    bool
	CreatedAt       time.Time
}

// HandlerInvocationStatus tracks one handler's processing of one event.
type HandlerInvocationStatus string

const (
	HandlerInvocationPending      HandlerInvocationStatus = "pending"
	HandlerInvocationSucceeded    HandlerInvocationStatus = "succeeded"
	HandlerInvocationDeadLettered HandlerInvocationStatus = "dead_lettered"
)

type HandlerInvocation struct {
	Id         uuid.UUID
	HandlerKey string
	EventId    uuid.UUID
	EventSeq   int64
	SubjectId  string
	Status     HandlerInvocationStatus
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
