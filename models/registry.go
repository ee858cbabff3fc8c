package models

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// TableFamily is a projection table family owned by exactly one domain
// worker. The set of families is declared here, not discovered at runtime, so
// the event taxonomy is a fixed cross-product checked at startup.
type TableFamily string

const (
	TableEntities    TableFamily = "entities"
	TableRelations   TableFamily = "relations"
	TableAnnotations TableFamily = "annotations"
	TableWorkspaces  TableFamily = "workspaces"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
)

// IsDestructive reports whether the action removes data. Destructive actions
// are subject to the non-overridable system review policy.
func (a Action) IsDestructive() bool {
	return a == ActionDelete
}

type tableDeclaration struct {
	family  TableFamily
	actions []Action
}

var declaredTables = []tableDeclaration{
	{TableEntities, []Action{ActionCreate, ActionUpdate, ActionDelete, ActionRestore}},
	{TableRelations, []Action{ActionCreate, ActionUpdate, ActionDelete}},
	{TableAnnotations, []Action{ActionCreate, ActionUpdate, ActionDelete}},
	{TableWorkspaces, []Action{ActionCreate, ActionUpdate, ActionDelete}},
}

// EventRegistry knows every valid (table, action) pair. It is built once from
// the declared table list and is immutable afterwards.
type EventRegistry struct {
	actionsByTable map[TableFamily][]Action
}

func NewEventRegistry() EventRegistry {
	byTable := make(map[TableFamily][]Action, len(declaredTables))
	for _, decl := range declaredTables {
		byTable[decl.family] = decl.actions
	}
	return EventRegistry{actionsByTable: byTable}
}

func (r EventRegistry) TableFamilies() []TableFamily {
	families := make([]TableFamily, 0, len(declaredTables))
	for _, decl := range declaredTables {
		families = append(families, decl.family)
	}
	return families
}

func (r EventRegistry) IsKnownTable(table TableFamily) bool {
	_, ok := r.actionsByTable[table]
	return ok
}

// Validate checks an event type against the declared taxonomy.
func (r EventRegistry) Validate(t EventType) error {
	actions, ok := r.actionsByTable[t.Table]
	if !ok {
		return errors.Wrap(BadParameterError,
			fmt.Sprintf("unknown table family %q", t.Table))
	}
	for _, action := range actions {
		if action == t.Action {
			return nil
		}
	}
	return errors.Wrap(BadParameterError,
		fmt.Sprintf("action %q is not declared for table %q", t.Action, t.Table))
}
