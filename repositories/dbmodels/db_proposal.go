package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/quillhq/quill-backend/models"
	"github.com/quillhq/quill-backend/utils"
)

type DbProposal struct {
	Id                 uuid.UUID       `db:"id"`
	WorkspaceId        uuid.UUID       `db:"workspace_id"`
	TargetType         string          `db:"target_type"`
	Status             string          `db:"status"`
	OriginatingEventId uuid.UUID       `db:"originating_event_id"`
	RequestType        string          `db:"request_type"`
	RequestData        json.RawMessage `db:"request_data"`
	Reason             string          `db:"reason"`
	CreatedAt          time.Time       `db:"created_at"`
	ResolvedAt         null.Time       `db:"resolved_at"`
	ResolvedBy         null.String     `db:"resolved_by"`
	ResolutionReason   null.String     `db:"resolution_reason"`
}

const TABLE_PROPOSALS = "proposals"

var SelectProposalColumns = utils.ColumnList[DbProposal]()

func AdaptProposal(db DbProposal) (models.Proposal, error) {
	requestType, err := models.ParseEventType(db.RequestType)
	if err != nil {
		return models.Proposal{}, err
	}

	return models.Proposal{
		Id:                 db.Id,
		WorkspaceId:        db.WorkspaceId,
		TargetType:         models.TableFamily(db.TargetType),
		Status:             models.ProposalStatusFrom(db.Status),
		OriginatingEventId: db.OriginatingEventId,
		RequestType:        requestType,
		RequestData:        db.RequestData,
		Reason:             db.Reason,
		CreatedAt:          db.CreatedAt,
		ResolvedAt:         db.ResolvedAt,
		ResolvedBy:         db.ResolvedBy,
		ResolutionReason:   db.ResolutionReason,
	}, nil
}
