package usecases

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/quillhq/quill-backend/models"
)

// Global defaults, applied when neither the system nor the workspace tier
// has an opinion. Tables absent from this map require review for every
// action.
var globalAutoApprove = map[models.TableFamily]bool{
	models.TableEntities:    true,
	models.TableRelations:   true,
	models.TableAnnotations: true,
}

type PolicyInput struct {
	Table    models.TableFamily
	Action   models.Action
	Source   models.EventSource
	Metadata json.RawMessage

	Workspace        models.WorkspacePolicy
	ActorIsSoleOwner bool
}

// IsExternallyAuthored reports whether the request was authored by an AI
// agent, either through its source or through a provenance tag in metadata.
func IsExternallyAuthored(source models.EventSource, metadata json.RawMessage) bool {
	if source == models.SourceExternalIntelligence {
		return true
	}
	if len(metadata) == 0 {
		return false
	}
	if gjson.GetBytes(metadata, "ai_generated").Bool() {
		return true
	}
	return gjson.GetBytes(metadata, "origin").String() == "ai"
}

// ResolvePolicy computes the validation decision for one request following
// the tier precedence: system override, then workspace override, then global
// default. The result is a pure function of its input, so the same request
// always resolves the same way.
func ResolvePolicy(input PolicyInput) models.PolicyDecision {
	// AI-authored requests always go through human review, whatever the
	// lower tiers say.
	if IsExternallyAuthored(input.Source, input.Metadata) {
		return models.PolicyDecision{
			RequiresValidation: true,
			Reason:             "requests authored by external intelligence require human review",
			Source:             models.PolicySourceSystem,
		}
	}

	// Destructive actions cannot be auto-approved by any configuration.
	if input.Action.IsDestructive() {
		return models.PolicyDecision{
			RequiresValidation: true,
			Reason:             fmt.Sprintf("%s is destructive and always requires review", input.Action),
			Source:             models.PolicySourceSystem,
		}
	}

	if mode, ok := input.Workspace.ModeFor(input.Table, input.Action); ok {
		switch mode {
		case models.PolicyModeDeny:
			return models.PolicyDecision{
				Denied: true,
				Reason: fmt.Sprintf("workspace policy denies %s on %s", input.Action, input.Table),
				Source: models.PolicySourceWorkspace,
			}
		case models.PolicyModeAuto:
			return models.PolicyDecision{
				Reason: fmt.Sprintf("workspace policy auto-approves %s on %s", input.Action, input.Table),
				Source: models.PolicySourceWorkspace,
			}
		case models.PolicyModeReview:
			if decision, ok := input.ownershipShortcut(models.PolicySourceWorkspace); ok {
				return decision
			}
			return models.PolicyDecision{
				RequiresValidation: true,
				Reason:             fmt.Sprintf("workspace policy requires review for %s on %s", input.Action, input.Table),
				Source:             models.PolicySourceWorkspace,
			}
		}
	}

	if globalAutoApprove[input.Table] {
		return models.PolicyDecision{
			Reason: fmt.Sprintf("global default auto-approves %s on %s", input.Action, input.Table),
			Source: models.PolicySourceGlobal,
		}
	}

	if decision, ok := input.ownershipShortcut(models.PolicySourceGlobal); ok {
		return decision
	}
	return models.PolicyDecision{
		RequiresValidation: true,
		Reason:             fmt.Sprintf("global default requires review for %s on %s", input.Action, input.Table),
		Source:             models.PolicySourceGlobal,
	}
}

// ownershipShortcut lets the sole owner of a subject skip review for
// non-destructive actions, unless the workspace opted out with strict mode.
func (input PolicyInput) ownershipShortcut(tier models.PolicySource) (models.PolicyDecision, bool) {
	if !input.ActorIsSoleOwner || input.Action.IsDestructive() || input.Workspace.Strict {
		return models.PolicyDecision{}, false
	}
	return models.PolicyDecision{
		Reason: fmt.Sprintf("actor is the sole owner, %s auto-approved despite %s review default", input.Action, tier),
		Source: models.PolicySourceSystem,
	}, true
}
