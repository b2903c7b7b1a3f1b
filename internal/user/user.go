// Package user provides the capability check the presentation layers consult
// before driving order and inventory operations. The core packages perform no
// authorization themselves.
package user

// Permission is a single capability a caller may hold.
type Permission string

const (
	PermViewProducts   Permission = "view_products"
	PermAddProducts    Permission = "add_products"
	PermModifyProducts Permission = "modify_products"
	PermDeleteProducts Permission = "delete_products"
	PermViewInventory  Permission = "view_inventory"
	PermViewOrders     Permission = "view_orders"
	PermCreateOrders   Permission = "create_orders"
	PermModifyOrders   Permission = "modify_orders"
	PermCancelOrders   Permission = "cancel_orders"
	PermViewReports    Permission = "view_reports"
	PermManageUsers    Permission = "manage_users"
)

// Role is a closed set of user kinds, each with a fixed permission set.
type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleStaff: {
		PermViewProducts:  true,
		PermViewInventory: true,
		PermViewOrders:    true,
		PermCreateOrders:  true,
		PermModifyOrders:  true,
	},
	RoleManager: {
		PermViewProducts:   true,
		PermAddProducts:    true,
		PermModifyProducts: true,
		PermDeleteProducts: true,
		PermViewInventory:  true,
		PermViewOrders:     true,
		PermCreateOrders:   true,
		PermModifyOrders:   true,
		PermCancelOrders:   true,
		PermViewReports:    true,
		PermManageUsers:    true,
	},
}

// ParseRole returns the role for its string form and whether it is known.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStaff:
		return RoleStaff, true
	case RoleManager:
		return RoleManager, true
	}
	return "", false
}

// HasPermission reports whether the role's fixed permission set includes p.
func (r Role) HasPermission(p Permission) bool {
	return rolePermissions[r][p]
}

// User identifies an authenticated caller.
type User struct {
	ID       string
	Username string
	Role     Role
}

func (u *User) HasPermission(p Permission) bool {
	return u.Role.HasPermission(p)
}
