package dto

import "github.com/quillhq/quill-backend/models"

type PolicyDecision struct {
	RequiresValidation bool   `json:"requires_validation"`
	Denied             bool   `json:"denied"`
	Reason             string `json:"reason"`
	Source             string `json:"source"`
}

func AdaptPolicyDecisionDto(decision models.PolicyDecision) PolicyDecision {
	return PolicyDecision{
		RequiresValidation: decision.RequiresValidation,
		Denied:             decision.Denied,
		Reason:             decision.Reason,
		Source:             string(decision.Source),
	}
}
