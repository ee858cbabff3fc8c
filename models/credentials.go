package models

import "github.com/google/uuid"

type Role string

const (
	RoleWorkspaceMember Role = "MEMBER"
	RoleWorkspaceAdmin  Role = "ADMIN"
	RolePlatformAdmin   Role = "PLATFORM_ADMIN"
)

// Credentials is the resolved acting identity, produced by the platform's
// identity collaborator and adapted into context by the API middleware.
type Credentials struct {
	ActorId     string
	WorkspaceId uuid.UUID
	Role        Role
}
