package rbac

// NavItem is one console navigation entry.
type NavItem struct {
	Key         string       `json:"key"`
	Label       string       `json:"label"`
	Path        string       `json:"path"`
	Departments []Department `json:"-"`
	Roles       []Role       `json:"-"`
}

var everyDepartment = []Department{DeptManagement, DeptSales, DeptDesign, DeptProduction, DeptDelivery}

// Navigation is the full console menu in display order.
var Navigation = []NavItem{
	{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Departments: []Department{DeptManagement, DeptSales}},
	{Key: "orders", Label: "Orders", Path: "/orders", Departments: []Department{DeptManagement, DeptSales, DeptDesign}},
	{Key: "clients", Label: "Clients", Path: "/clients", Departments: []Department{DeptManagement, DeptSales}},
	{Key: "products", Label: "Products", Path: "/products", Departments: []Department{DeptManagement, DeptSales}},
	{Key: "scanner", Label: "QR Scanner", Path: "/production/scan", Departments: []Department{DeptManagement, DeptSales, DeptDesign, DeptProduction}},
	{Key: "jobs", Label: "Production Jobs", Path: "/production/jobs", Departments: everyDepartment},
	{Key: "delivery", Label: "Delivery", Path: "/delivery", Departments: []Department{DeptManagement, DeptSales, DeptDelivery}},
	{Key: "users", Label: "Users", Path: "/auth/users", Departments: []Department{DeptManagement}, Roles: []Role{RoleAdmin}},
}

// VisibleNavigation filters Navigation through CanAccess.
func VisibleNavigation(p Principal) []NavItem {
	out := make([]NavItem, 0, len(Navigation))
	for _, item := range Navigation {
		if CanAccess(p, item.Departments, item.Roles...) {
			out = append(out, item)
		}
	}
	return out
}
