package auth

import (
	"context"
	"sort"
	"strings"

	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
)

// Directory is the fixed allow-list of identities that may sign in.
type Directory struct {
	byEmail map[string]User
}

// NewDirectory indexes users by lowercased email.
func NewDirectory(users []User) *Directory {
	d := &Directory{byEmail: make(map[string]User, len(users))}
	for _, u := range users {
		d.byEmail[normalizeEmail(u.Email)] = u
	}
	return d
}

// FindByEmail looks up an identity.
func (d *Directory) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := d.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

// List returns every identity ordered by email.
func (d *Directory) List() []User {
	out := make([]User, 0, len(d.byEmail))
	for _, u := range d.byEmail {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DemoUsers is the built-in staff roster.
func DemoUsers() []User {
	return []User{
		{ID: "u-admin", Name: "Aisha Admin", Email: "admin@printdesk.local", Role: rbac.RoleAdmin, Department: rbac.DeptManagement, IsActive: true},
		{ID: "u-salesmgr", Name: "Sam Manager", Email: "sales.manager@printdesk.local", Role: rbac.RoleSalesManager, Department: rbac.DeptSales, IsActive: true},
		{ID: "u-sales", Name: "Sara Sales", Email: "sales@printdesk.local", Role: rbac.RoleSalesExecutive, Department: rbac.DeptSales, IsActive: true},
		{ID: "u-design", Name: "Dan Designer", Email: "design@printdesk.local", Role: rbac.RoleDesigner, Department: rbac.DeptDesign, IsActive: true},
		{ID: "u-print", Name: "Priya Print", Email: "print@printdesk.local", Role: rbac.RolePrint, Department: rbac.DeptProduction, IsActive: true},
		{ID: "u-press", Name: "Pete Press", Email: "press@printdesk.local", Role: rbac.RolePress, Department: rbac.DeptProduction, IsActive: true},
		{ID: "u-cut", Name: "Cora Cut", Email: "cut@printdesk.local", Role: rbac.RoleCut, Department: rbac.DeptProduction, IsActive: true},
		{ID: "u-sew", Name: "Sean Sew", Email: "sew@printdesk.local", Role: rbac.RoleSew, Department: rbac.DeptProduction, IsActive: true},
		{ID: "u-qc", Name: "Quinn QC", Email: "qc@printdesk.local", Role: rbac.RoleQC, Department: rbac.DeptProduction, IsActive: true},
		{ID: "u-pack", Name: "Ivy Packing", Email: "packing@printdesk.local", Role: rbac.RoleIronPacking, Department: rbac.DeptProduction, IsActive: true},
		{ID: "u-driver", Name: "Dev Driver", Email: "driver@printdesk.local", Role: rbac.RoleDriver, Department: rbac.DeptDelivery, IsActive: true},
	}
}
