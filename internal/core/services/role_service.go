package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"

	"gorm.io/gorm"
)

// Role errors
var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleNameTaken     = errors.New("role name already exists")
	ErrProtectedRole     = errors.New("the administrator role cannot be deleted, renamed or deactivated")
	ErrRoleAssigned      = errors.New("role is assigned to users and cannot be deleted")
	ErrUnknownPermission = errors.New("one or more permissions do not exist")
)

// RoleService manages roles and their permissions
type RoleService struct {
	roleRepo       repositories.RoleRepository
	permissionRepo repositories.PermissionRepository
	userRepo       repositories.UserRepository
	auditor        Auditor
}

// NewRoleService creates a new role service
func NewRoleService(
	roleRepo repositories.RoleRepository,
	permissionRepo repositories.PermissionRepository,
	userRepo repositories.UserRepository,
	auditor Auditor,
) *RoleService {
	return &RoleService{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		userRepo:       userRepo,
		auditor:        auditor,
	}
}

// RoleInput represents role create / update input
type RoleInput struct {
	Name string `json:"name"`
}

// SetPermissionsInput replaces the permissions of a role
type SetPermissionsInput struct {
	PermissionIDs []uint `json:"permission_ids"`
}

func (s *RoleService) List(ctx context.Context) ([]*models.Role, error) {
	return s.roleRepo.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, id uint) (*models.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

// Create adds an active role with a unique name
func (s *RoleService) Create(ctx context.Context, input *RoleInput, actor string) (*models.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.MissingFields("name")
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	role := &models.Role{Name: name, IsActive: true}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrRoleNameTaken
		}
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Created role %s", role.Name), actor, nil)
	return role, nil
}

// Update renames a role. The administrator role keeps its name.
func (s *RoleService) Update(ctx context.Context, id uint, input *RoleInput, actor string) (*models.Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.MissingFields("name")
	}

	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.IsProtectedRole(role.Name) && !domain.IsProtectedRole(name) {
		return nil, ErrProtectedRole
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	previous := role.Name
	role.Name = name
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Renamed role %s to %s", previous, role.Name), actor, nil)
	return role, nil
}

// Delete removes an unassigned role. The administrator role is never deleted.
func (s *RoleService) Delete(ctx context.Context, id uint, actor string) error {
	role, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if domain.IsProtectedRole(role.Name) {
		return ErrProtectedRole
	}

	assigned, err := s.roleRepo.CountAssignments(ctx, id)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return ErrRoleAssigned
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(fmt.Sprintf("Deleted role %s", role.Name), actor, nil)
	return nil
}

// ToggleStatus flips the active flag. The administrator role cannot be deactivated.
func (s *RoleService) ToggleStatus(ctx context.Context, id uint, actor string) (*models.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsActive && domain.IsProtectedRole(role.Name) {
		return nil, ErrProtectedRole
	}

	role.IsActive = !role.IsActive
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}

	state := "Deactivated"
	if role.IsActive {
		state = "Activated"
	}
	s.auditor.Record(fmt.Sprintf("%s role %s", state, role.Name), actor, nil)
	return role, nil
}

// RolesOfUser lists the roles assigned to a user
func (s *RoleService) RolesOfUser(ctx context.Context, userID uint) ([]*models.Role, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.roleRepo.ListByUser(ctx, userID)
}

// UsersWithRoles lists every user along with their roles
func (s *RoleService) UsersWithRoles(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.ListWithRoles(ctx)
}

func (s *RoleService) ListPermissions(ctx context.Context) ([]*models.Permission, error) {
	return s.permissionRepo.List(ctx)
}

// SetPermissions replaces the permissions granted by a role
func (s *RoleService) SetPermissions(ctx context.Context, id uint, input *SetPermissionsInput, actor string) (*models.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := uniqueIDs(input.PermissionIDs)
	perms, err := s.permissionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(perms) != len(ids) {
		return nil, ErrUnknownPermission
	}

	if err := s.roleRepo.ReplacePermissions(ctx, role, perms); err != nil {
		return nil, err
	}
	role.Permissions = perms

	s.auditor.Record(fmt.Sprintf("Updated permissions of role %s", role.Name), actor, nil)
	return role, nil
}

func (s *RoleService) ensureNameFree(ctx context.Context, name string, excludeID uint) error {
	existing, err := s.roleRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != excludeID {
		return ErrRoleNameTaken
	}
	return nil
}
