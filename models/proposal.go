package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusValidated ProposalStatus = "validated"
	ProposalStatusRejected  ProposalStatus = "rejected"
)

func ProposalStatusFrom(s string) ProposalStatus {
	switch ProposalStatus(s) {
	case ProposalStatusPending, ProposalStatusValidated, ProposalStatusRejected:
		return ProposalStatus(s)
	}
	panic(fmt.Errorf("unknown proposal status: %s", s))
}

type ProposalDecision string

const (
	ProposalDecisionApprove ProposalDecision = "approve"
	ProposalDecisionReject  ProposalDecision = "reject"
)

// Proposal is a paused intent awaiting a human decision. It is created by the
// permission validator, resolved exactly once, and kept forever for audit.
type Proposal struct {
	Id                 uuid.UUID
	WorkspaceId        uuid.UUID
	TargetType         TableFamily
	Status             ProposalStatus
	OriginatingEventId uuid.UUID
	RequestType        EventType
	RequestData        json.RawMessage
	Reason             string
	CreatedAt          time.Time
	ResolvedAt         null.Time
	ResolvedBy         null.String
	ResolutionReason   null.String
}

type ProposalFilters struct {
	WorkspaceId uuid.UUID
	Status      string
	TargetType  string
}
