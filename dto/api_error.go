package dto

type APIErrorResponse struct {
	Message   string    `json:"message"`
	ErrorCode ErrorCode `json:"error_code,omitempty"`
}

type ErrorCode string

const (
	ProposalAlreadyResolved ErrorCode = "proposal_already_resolved"
	UnknownEventType        ErrorCode = "unknown_event_type"
)
