package models

import "github.com/google/uuid"

// PolicySource tells which tier of the resolution order produced a decision.
type PolicySource string

const (
	PolicySourceSystem    PolicySource = "system"
	PolicySourceWorkspace PolicySource = "workspace"
	PolicySourceGlobal    PolicySource = "global"
)

// PolicyMode is the value space of a policy tier for one (table, action).
type PolicyMode string

const (
	// PolicyModeAuto approves the request without human review.
	PolicyModeAuto PolicyMode = "auto"
	// PolicyModeReview routes the request through a proposal.
	PolicyModeReview PolicyMode = "review"
	// PolicyModeDeny rejects the request outright.
	PolicyModeDeny PolicyMode = "deny"
)

func PolicyModeFrom(s string) (PolicyMode, bool) {
	switch PolicyMode(s) {
	case PolicyModeAuto, PolicyModeReview, PolicyModeDeny:
		return PolicyMode(s), true
	}
	return "", false
}

// PolicyDecision is the immutable output of one policy resolution. It is
// computed per call, never cached in mutable process state, and recorded in
// the metadata of the event it produces.
type PolicyDecision struct {
	RequiresValidation bool
	Denied             bool
	Reason             string
	Source             PolicySource
}

// WorkspacePolicy is the owner-configured override tier: a map of table
// family to per-action modes, plus a strict flag disabling the sole-owner
// auto-approval shortcut.
type WorkspacePolicy struct {
	WorkspaceId uuid.UUID
	Overrides   map[TableFamily]map[Action]PolicyMode
	Strict      bool
}

func (p WorkspacePolicy) ModeFor(table TableFamily, action Action) (PolicyMode, bool) {
	actions, ok := p.Overrides[table]
	if !ok {
		return "", false
	}
	mode, ok := actions[action]
	return mode, ok
}
