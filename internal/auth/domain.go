package auth

import (
	"github.com/printdesk/printdesk/internal/rbac"
)

// User represents a console identity. Its JSON form is what the session persists.
type User struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       rbac.Role       `json:"role"`
	Department rbac.Department `json:"department"`
	IsActive   bool            `json:"is_active"`
}

// RoleName implements rbac.Principal.
func (u User) RoleName() rbac.Role {
	return u.Role
}

// DepartmentName implements rbac.Principal.
func (u User) DepartmentName() rbac.Department {
	return u.Department
}
