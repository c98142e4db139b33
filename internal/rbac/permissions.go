package rbac

import "strings"

// Permission tags checked by handlers and the session.
const (
	PermAll = "*"

	PermDashboardView = "dashboard.view"
	PermReportsView   = "reports.view"

	PermClientsView   = "clients.view"
	PermClientsCreate = "clients.create"
	PermClientsEdit   = "clients.edit"
	PermClientsDelete = "clients.delete"

	PermProductsView   = "products.view"
	PermProductsManage = "products.manage"

	PermOrdersView      = "orders.view"
	PermOrdersCreate    = "orders.create"
	PermOrdersEdit      = "orders.edit"
	PermOrdersDelete    = "orders.delete"
	PermPaymentsApprove = "payments.approve"

	PermJobsView        = "jobs.view"
	PermJobsCreate      = "jobs.create"
	PermJobsScan        = "jobs.scan"
	PermJobsPhaseUpdate = "jobs.phase.update"
	PermJobsEdit        = "jobs.edit"

	PermDeliveryView   = "delivery.view"
	PermDeliveryUpdate = "delivery.update"
)

var productionFloor = []string{PermJobsView, PermJobsScan, PermJobsPhaseUpdate}

var rolePermissions = map[Role][]string{
	RoleAdmin: {PermAll},
	RoleSalesManager: {
		PermDashboardView, PermReportsView,
		PermClientsView, PermClientsCreate, PermClientsEdit, PermClientsDelete,
		PermProductsView, PermProductsManage,
		PermOrdersView, PermOrdersCreate, PermOrdersEdit, PermPaymentsApprove,
		PermJobsView, PermJobsCreate, PermJobsScan, PermJobsPhaseUpdate, PermJobsEdit,
		PermDeliveryView, PermDeliveryUpdate,
	},
	RoleSalesExecutive: {
		PermDashboardView,
		PermClientsView, PermClientsCreate, PermClientsEdit,
		PermProductsView,
		PermOrdersView, PermOrdersCreate, PermOrdersEdit,
		PermJobsView,
		PermDeliveryView,
	},
	RoleDesigner:    {PermOrdersView, PermJobsView, PermJobsScan, PermJobsPhaseUpdate},
	RolePrint:       productionFloor,
	RolePress:       productionFloor,
	RoleCut:         productionFloor,
	RoleSew:         productionFloor,
	RoleQC:          productionFloor,
	RoleIronPacking: productionFloor,
	RoleDriver:      {PermDeliveryView, PermDeliveryUpdate},
}

// HasPermission reports whether role grants perm. The wildcard grants everything.
func HasPermission(role Role, perm string) bool {
	perm = strings.ToLower(strings.TrimSpace(perm))
	if perm == "" {
		return true
	}
	for _, granted := range rolePermissions[role.Normalize()] {
		if granted == PermAll || granted == perm {
			return true
		}
	}
	return false
}

// Permissions lists the tags granted to role.
func Permissions(role Role) []string {
	granted := rolePermissions[role.Normalize()]
	out := make([]string, len(granted))
	copy(out, granted)
	return out
}

// CanAccess is the coarse navigation gate: the department must be listed and, when
// roles are given, the role as well.
func CanAccess(p Principal, departments []Department, roles ...Role) bool {
	if p == nil {
		return false
	}
	dept := p.DepartmentName()
	allowed := false
	for _, d := range departments {
		if d == dept {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	role := p.RoleName().Normalize()
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
