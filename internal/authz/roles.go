package authz

const (
	RoleAssignee = 10
	RoleReviewer = 20
	RoleAudit    = 30
	RoleAdmin    = 50
)

// CanReview reports whether the role may finalize tasks or request rework.
func CanReview(roleID int) bool {
	return roleID == RoleReviewer || roleID == RoleAdmin
}

func IsAdmin(roleID int) bool {
	return roleID == RoleAdmin
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleAudit
}
