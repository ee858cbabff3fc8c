package dto

import (
	"encoding/json"
	"time"

	"github.com/quillhq/quill-backend/models"
)

type Proposal struct {
	Id                 string          `json:"id"`
	WorkspaceId        string          `json:"workspace_id"`
	TargetType         string          `json:"target_type"`
	Status             string          `json:"status"`
	OriginatingEventId string          `json:"originating_event_id"`
	RequestType        string          `json:"request_type"`
	RequestData        json.RawMessage `json:"request_data,omitempty"`
	Reason             string          `json:"reason"`
	CreatedAt          time.Time       `json:"created_at"`
	ResolvedAt         *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy         string          `json:"resolved_by,omitempty"`
	ResolutionReason   string          `json:"resolution_reason,omitempty"`
}

func AdaptProposalDto(proposal models.Proposal) Proposal {
	out := Proposal{
		Id:                 proposal.Id.String(),
		WorkspaceId:        proposal.WorkspaceId.String(),
		TargetType:         string(proposal.TargetType),
		Status:             string(proposal.Status),
		OriginatingEventId: proposal.OriginatingEventId.String(),
		RequestType:        proposal.RequestType.String(),
		RequestData:        proposal.RequestData,
		Reason:             proposal.Reason,
		CreatedAt:          proposal.CreatedAt,
		ResolvedBy:         proposal.ResolvedBy.ValueOrZero(),
		ResolutionReason:   proposal.ResolutionReason.ValueOrZero(),
	}
	if proposal.ResolvedAt.Valid {
		resolvedAt := proposal.ResolvedAt.Time
		out.ResolvedAt = &resolvedAt
	}
	return out
}

type ResolveProposalBody struct {
	Decision string  `json:"decision" binding:"required,oneof=approve reject"`
	Reason   *string `json:"reason"`
}
