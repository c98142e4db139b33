package rbac

import "strings"

// Department is the coarse identity classifier used for navigation gating.
type Department string

const (
	DeptManagement Department = "management"
	DeptSales      Department = "sales"
	DeptDesign     Department = "design"
	DeptProduction Department = "production"
	DeptDelivery   Department = "delivery"
)

// Role is the fine-grained identity classifier.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleSalesManager   Role = "sales_manager"
	RoleSalesExecutive Role = "sales_executive"
	RoleDesigner       Role = "designer"
	RolePrint          Role = "print"
	RolePress          Role = "press"
	RoleCut            Role = "cut"
	RoleSew            Role = "sew"
	RoleQC             Role = "qc"
	RoleIronPacking    Role = "iron_packing"
	RoleDriver         Role = "driver"
)

// Principal describes the authenticated actor.
type Principal interface {
	RoleName() Role
	DepartmentName() Department
}

// IsManager reports whether the role may act on every production phase.
func (r Role) IsManager() bool {
	n := r.Normalize()
	return n == RoleAdmin || n == RoleSalesManager
}

// Normalize lowercases and trims a free-text role value.
func (r Role) Normalize() Role {
	return Role(strings.ToLower(strings.TrimSpace(string(r))))
}
