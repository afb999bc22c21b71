package domain

// Staff roles carried in JWT claims. Customers are not staff: they never
// authenticate against the dashboard and are addressed only through the
// public customer API.
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleReceptionist = "receptionist"
)

// CanSendNotifications reports whether a staff role may create notifications.
func CanSendNotifications(role string) bool {
	return role == RoleAdmin || role == RoleDoctor
}
