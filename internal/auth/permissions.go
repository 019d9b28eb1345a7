package auth

// Permission names.
const (
	PermList         = "list"
	PermCreate       = "create"
	PermUpdate       = "update"
	PermDelete       = "delete"
	PermChangeStatus = "change_status"
)

// Permission scopes.
const (
	ScopeUser = "user"
	ScopeRole = "role"
)

// DefaultPermissions is the seeded catalog: every name crossed with every
// scope.
var DefaultPermissions = []Permission{
	{Name: PermList, Scope: ScopeUser, Description: "Read user data"},
	{Name: PermCreate, Scope: ScopeUser, Description: "Create user data"},
	{Name: PermUpdate, Scope: ScopeUser, Description: "Edit user data"},
	{Name: PermDelete, Scope: ScopeUser, Description: "Delete user data"},
	{Name: PermChangeStatus, Scope: ScopeUser, Description: "Change user status"},
	{Name: PermList, Scope: ScopeRole, Description: "Read role data"},
	{Name: PermCreate, Scope: ScopeRole, Description: "Create role data"},
	{Name: PermUpdate, Scope: ScopeRole, Description: "Edit role data"},
	{Name: PermDelete, Scope: ScopeRole, Description: "Delete role data"},
	{Name: PermChangeStatus, Scope: ScopeRole, Description: "Change role status"},
}
