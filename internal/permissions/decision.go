package permissions

// Reason explains why a removal decision was denied.
type Reason string

const (
	// ReasonNotMember means the acting user has no membership in the team.
	ReasonNotMember Reason = "not_member"
	// ReasonNotAdmin means the acting user is a member but lacks the admin role.
	ReasonNotAdmin Reason = "not_admin"
	// ReasonLastAdmin means the removal would leave the team without an admin.
	ReasonLastAdmin Reason = "last_admin"
)

// Decision is the outcome of a removal check. A zero Decision denies.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow builds a positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a negative decision carrying the reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}
