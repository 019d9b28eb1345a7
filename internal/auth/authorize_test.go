package auth

import "testing"

func grantedPrincipal(tuples ...Tuple) Principal {
	role := &Role{ID: "r-1", Name: "tester", Status: StatusActive}
	for _, t := range tuples {
		role.Permissions = append(role.Permissions, Permission{Name: t.Name, Scope: t.Scope})
	}
	return NewPrincipal(&User{ID: "u-1", Username: "tester"}, role)
}

func TestAuthorizeEmptyRequirementAllows(t *testing.T) {
	principal := grantedPrincipal()
	if !Authorize(nil, principal) {
		t.Fatal("empty requirement must allow any authenticated principal")
	}
}

func TestAuthorizeExactTupleMatch(t *testing.T) {
	principal := grantedPrincipal(Tuple{Name: PermDelete, Scope: ScopeUser})

	if !Authorize([]Tuple{{Name: PermDelete, Scope: ScopeUser}}, principal) {
		t.Fatal("expected matching tuple to allow")
	}
	if Authorize([]Tuple{{Name: PermUpdate, Scope: ScopeUser}}, principal) {
		t.Fatal("different name must deny")
	}
	if Authorize([]Tuple{{Name: PermDelete, Scope: ScopeRole}}, principal) {
		t.Fatal("different scope must deny")
	}
}

func TestAuthorizeOrSemantics(t *testing.T) {
	principal := grantedPrincipal(Tuple{Name: PermList, Scope: ScopeRole})
	required := []Tuple{
		{Name: PermDelete, Scope: ScopeUser},
		{Name: PermList, Scope: ScopeRole},
	}
	if !Authorize(required, principal) {
		t.Fatal("one matching tuple out of several must allow")
	}
}

func TestAuthorizeWithoutRoleDenies(t *testing.T) {
	principal := NewPrincipal(&User{ID: "u-1", Username: "roleless"}, nil)
	if Authorize([]Tuple{{Name: PermList, Scope: ScopeUser}}, principal) {
		t.Fatal("principal without role must be denied")
	}
}
