package usecases

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillhq/quill-backend/models"
)

func TestResolvePolicyDestructiveActionsAlwaysReviewed(t *testing.T) {
	decision := ResolvePolicy(PolicyInput{
		Table:  models.TableEntities,
		Action: models.ActionDelete,
		Source: models.SourceUserApi,
	})

	assert.True(t, decision.RequiresValidation)
	assert.False(t, decision.Denied)
	assert.Equal(t, models.PolicySourceSystem, decision.Source)
}

func TestResolvePolicyDestructiveIgnoresWorkspaceAuto(t *testing.T) {
	decision := ResolvePolicy(PolicyInput{
		Table:  models.TableEntities,
		Action: models.ActionDelete,
		Source: models.SourceUserApi,
		Workspace: models.WorkspacePolicy{
			Overrides: map[models.TableFamily]map[models.Action]models.PolicyMode{
				models.TableEntities: {models.ActionDelete: models.PolicyModeAuto},
			},
		},
		ActorIsSoleOwner: true,
	})

	assert.True(t, decision.RequiresValidation)
	assert.Equal(t, models.PolicySourceSystem, decision.Source)
}

func TestResolvePolicyExternalIntelligenceAlwaysReviewed(t *testing.T) {
	decision := ResolvePolicy(PolicyInput{
		Table:            models.TableEntities,
		Action:           models.ActionCreate,
		Source:           models.SourceExternalIntelligence,
		ActorIsSoleOwner: true,
	})

	assert.True(t, decision.RequiresValidation)
	assert.False(t, decision.Denied)
	assert.Equal(t, models.PolicySourceSystem, decision.Source)
}

func TestResolvePolicyAiMetadataTagsTriggerReview(t *testing.T) {
	for name, metadata := range map[string]json.RawMessage{
		"ai_generated flag": json.RawMessage(`{"ai_generated": true}`),
		"origin tag":        json.RawMessage(`{"origin": "ai"}`),
	} {
		t.Run(name, func(t *testing.T) {
			decision := ResolvePolicy(PolicyInput{
				Table:    models.TableEntities,
				Action:   models.ActionCreate,
				Source:   models.SourceUserApi,
				Metadata: metadata,
			})

			assert.True(t, decision.RequiresValidation)
			assert.Equal(t, models.PolicySourceSystem, decision.Source)
		})
	}
}

func TestResolvePolicyAiReviewBeatsWorkspaceDeny(t *testing.T) {
	decision := ResolvePolicy(PolicyInput{
		Table:  models.TableEntities,
		Action: models.ActionCreate,
		Source: models.SourceExternalIntelligence,
		Workspace: models.WorkspacePolicy{
			Overrides: map[models.TableFamily]map[models.Action]models.PolicyMode{
				models.TableEntities: {models.ActionCreate: models.PolicyModeDeny},
			},
		},
	})

	assert.True(t, decision.RequiresValidation)
	assert.False(t, decision.Denied)
}

func TestResolvePolicyWorkspaceOverrides(t *testing.T) {
	workspace := models.WorkspacePolicy{
		Overrides: map[models.TableFamily]map[models.Action]models.PolicyMode{
			models.TableEntities: {
				models.ActionCreate: models.PolicyModeDeny,
				models.ActionUpdate: models.PolicyModeReview,
			},
			models.TableAnnotations: {
				models.ActionUpdate: models.PolicyModeAuto,
			},
		},
	}

	denied := ResolvePolicy(PolicyInput{
		Table: models.TableEntities, Action: models.ActionCreate,
		Source: models.SourceUserApi, Workspace: workspace,
	})
	assert.True(t, denied.Denied)
	assert.Equal(t, models.PolicySourceWorkspace, denied.Source)

	reviewed := ResolvePolicy(PolicyInput{
		Table: models.TableEntities, Action: models.ActionUpdate,
		Source: models.SourceUserApi, Workspace: workspace,
	})
	assert.True(t, reviewed.RequiresValidation)
	assert.Equal(t, models.PolicySourceWorkspace, reviewed.Source)

	auto := ResolvePolicy(PolicyInput{
		Table: models.TableAnnotations, Action: models.ActionUpdate,
		Source: models.SourceUserApi, Workspace: workspace,
	})
	assert.False(t, auto.RequiresValidation)
	assert.False(t, auto.Denied)
	assert.Equal(t, models.PolicySourceWorkspace, auto.Source)
}

func TestResolvePolicySoleOwnerSkipsWorkspaceReview(t *testing.T) {
	workspace := models.WorkspacePolicy{
		Overrides: map[models.TableFamily]map[models.Action]models.PolicyMode{
			models.TableEntities: {models.ActionUpdate: models.PolicyModeReview},
		},
	}

	decision := ResolvePolicy(PolicyInput{
		Table: models.TableEntities, Action: models.ActionUpdate,
		Source: models.SourceUserApi, Workspace: workspace,
		ActorIsSoleOwner: true,
	})

	assert.False(t, decision.RequiresValidation)
	assert.Equal(t, models.PolicySourceSystem, decision.Source)
}

func TestResolvePolicyStrictModeDisablesSoleOwnerShortcut(t *testing.T) {
	workspace := models.WorkspacePolicy{
		Strict: true,
		Overrides: map[models.TableFamily]map[models.Action]models.PolicyMode{
			models.TableEntities: {models.ActionUpdate: models.PolicyModeReview},
		},
	}

	decision := ResolvePolicy(PolicyInput{
		Table: models.TableEntities, Action: models.ActionUpdate,
		Source: models.SourceUserApi, Workspace: workspace,
		ActorIsSoleOwner: true,
	})

	assert.True(t, decision.RequiresValidation)
	assert.Equal(t, models.PolicySourceWorkspace, decision.Source)
}

func TestResolvePolicyGlobalDefaults(t *testing.T) {
	for _, table := range []models.TableFamily{
		models.TableEntities, models.TableRelations, models.TableAnnotations,
	} {
		decision := ResolvePolicy(PolicyInput{
			Table: table, Action: models.ActionCreate, Source: models.SourceUserApi,
		})
		assert.False(t, decision.RequiresValidation, "create on %s should auto-approve", table)
		assert.Equal(t, models.PolicySourceGlobal, decision.Source)
	}

	decision := ResolvePolicy(PolicyInput{
		Table: models.TableWorkspaces, Action: models.ActionCreate, Source: models.SourceUserApi,
	})
	assert.True(t, decision.RequiresValidation)
	assert.Equal(t, models.PolicySourceGlobal, decision.Source)
}

func TestResolvePolicySoleOwnerSkipsGlobalReview(t *testing.T) {
	decision := ResolvePolicy(PolicyInput{
		Table: models.TableWorkspaces, Action: models.ActionUpdate,
		Source:           models.SourceUserApi,
		ActorIsSoleOwner: true,
	})

	assert.False(t, decision.RequiresValidation)
	assert.Equal(t, models.PolicySourceSystem, decision.Source)
}

func TestIsExternallyAuthored(t *testing.T) {
	assert.True(t, IsExternallyAuthored(models.SourceExternalIntelligence, nil))
	assert.True(t, IsExternallyAuthored(models.SourceUserApi, json.RawMessage(`{"ai_generated": true}`)))
	assert.True(t, IsExternallyAuthored(models.SourceUserApi, json.RawMessage(`{"origin": "ai"}`)))
	assert.False(t, IsExternallyAuthored(models.SourceUserApi, json.RawMessage(`{"origin": "sync"}`)))
	assert.False(t, IsExternallyAuthored(models.SourceUserApi, nil))
	assert.False(t, IsExternallyAuthored(models.SourceAutomation, json.RawMessage(`{"ai_generated": false}`)))
}
