package domain

import "strings"

// Role names seeded by the system. Comparisons are case-insensitive.
const (
	RoleAdmin   = "Administrador"
	RoleDoctor  = "Médico"
	RoleNurse   = "Enfermero"
	RolePatient = "Paciente"
)

// StaffRoles may register and edit administered doses
var StaffRoles = []string{RoleAdmin, RoleDoctor, RoleNurse}

// Permission names attached to roles
const (
	PermUsersManage    = "users.manage"
	PermRolesManage    = "roles.manage"
	PermVaccinesManage = "vaccines.manage"
	PermHistoryApply   = "history.apply"
	PermHistoryView    = "history.view"
	PermReportsView    = "reports.view"
	PermAuditView      = "audit.view"
	PermContentManage  = "content.manage"
)

// SystemActor is recorded when no responsible party is known
const SystemActor = "System"

// StatusApplied is the status of every dose registered through the workflow
const StatusApplied = "Aplicada"

// IsProtectedRole reports whether a role name is the reserved administrator role
func IsProtectedRole(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), RoleAdmin)
}

// Identity is the acting user resolved from a bearer token
type Identity struct {
	UserID      uint
	Name        string
	NationalID  string
	Email       string
	Roles       []string
	Permissions []string
}

// HasRole reports whether the identity holds any of the given roles
func (i *Identity) HasRole(roles ...string) bool {
	for _, held := range i.Roles {
		for _, want := range roles {
			if strings.EqualFold(held, want) {
				return true
			}
		}
	}
	return false
}

// IsStaff reports whether the identity holds a staff role
func (i *Identity) IsStaff() bool {
	return i.HasRole(StaffRoles...)
}
