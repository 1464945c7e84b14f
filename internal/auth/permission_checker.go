package auth

type PermissionChecker interface {
	HasAnyPermission(session *Session, required ...string) bool
	HasAnyRole(session *Session, roles ...string) bool
	IsAdmin(session *Session) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

// HasAnyPermission is true for admins and for sessions holding at least one
// of required. Sessions only ever carry grants that were active when built.
func (c *DefaultPermissionChecker) HasAnyPermission(session *Session, required ...string) bool {
	if session == nil {
		return false
	}
	if c.IsAdmin(session) {
		return true
	}
	for _, p := range session.Permissions {
		for _, want := range required {
			if p.Permission == want {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) HasAnyRole(session *Session, roles ...string) bool {
	if session == nil {
		return false
	}
	for _, role := range roles {
		if session.Role == role {
			return true
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(session *Session) bool {
	return session != nil && session.Role == RoleAdmin
}
