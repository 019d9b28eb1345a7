package auth

// Authorize decides endpoint access. An empty required set allows any
// authenticated principal: routes that declare no permissions are open by
// omission, a policy preserved from the system this replaces. Otherwise at
// least one required tuple must exactly match a granted tuple (OR
// semantics); a principal with no role or no loaded permissions is denied.
func Authorize(required []Tuple, principal Principal) bool {
	if len(required) == 0 {
		return true
	}
	for _, t := range required {
		if principal.HasPermission(t) {
			return true
		}
	}
	return false
}
