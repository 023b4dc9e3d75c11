package handlers

import (
	"errors"

	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RoleHandler handles role and permission endpoints
type RoleHandler struct {
	roleService *services.RoleService
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func roleError(c *fiber.Ctx, err error, fallback string) error {
	if ok, resp := invalidInput(c, err); ok {
		return resp
	}
	switch {
	case errors.Is(err, services.ErrRoleNotFound):
		return response.NotFound(c, "Role not found")
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrRoleNameTaken):
		return response.Conflict(c, "Role name already exists")
	case errors.Is(err, services.ErrRoleAssigned):
		return response.Conflict(c, "Role is assigned to users and cannot be deleted")
	case errors.Is(err, services.ErrProtectedRole),
		errors.Is(err, services.ErrUnknownPermission):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}

func roleResponses(roles []*models.Role) []*models.RoleResponse {
	result := make([]*models.RoleResponse, 0, len(roles))
	for _, r := range roles {
		result = append(result, r.ToResponse())
	}
	return result
}

// List lists roles with their permissions
// @Summary List roles
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.RoleResponse}
// @Router /roles [get]
func (h *RoleHandler) List(c *fiber.Ctx) error {
	roles, err := h.roleService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get roles")
	}
	return response.Success(c, "Roles retrieved successfully", roleResponses(roles))
}

// Get gets a role
// @Summary Get role
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 200 {object} response.Response{data=models.RoleResponse}
// @Failure 404 {object} response.Response
// @Router /roles/{id} [get]
func (h *RoleHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	role, err := h.roleService.Get(c.Context(), id)
	if err != nil {
		return roleError(c, err, "Failed to get role")
	}
	return response.Success(c, "Role retrieved successfully", role.ToResponse())
}

// Create creates a role
// @Summary Create role
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.RoleInput true "Role name"
// @Success 201 {object} response.Response{data=models.RoleResponse}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /roles [post]
func (h *RoleHandler) Create(c *fiber.Ctx) error {
	var req services.RoleInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	role, err := h.roleService.Create(c.Context(), &req, middleware.Actor(c))
	if err != nil {
		return roleError(c, err, "Failed to create role")
	}
	return response.Created(c, "Role created successfully", role.ToResponse())
}

// Update renames a role
// @Summary Update role
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Param body body services.RoleInput true "Role name"
// @Success 200 {object} response.Response{data=models.RoleResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /roles/{id} [put]
func (h *RoleHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req services.RoleInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	role, err := h.roleService.Update(c.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		return roleError(c, err, "Failed to update role")
	}
	return response.Success(c, "Role updated successfully", role.ToResponse())
}

// Delete deletes an unassigned role
// @Summary Delete role
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /roles/{id} [delete]
func (h *RoleHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.roleService.Delete(c.Context(), id, middleware.Actor(c)); err != nil {
		return roleError(c, err, "Failed to delete role")
	}
	return response.Success(c, "Role deleted successfully", nil)
}

// ToggleStatus activates or deactivates a role
// @Summary Toggle role status
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Success 200 {object} response.Response{data=models.RoleResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /roles/{id}/status [patch]
func (h *RoleHandler) ToggleStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	role, err := h.roleService.ToggleStatus(c.Context(), id, middleware.Actor(c))
	if err != nil {
		return roleError(c, err, "Failed to update role status")
	}
	return response.Success(c, "Role status updated", role.ToResponse())
}

// RolesOfUser lists the roles of a user
// @Summary Roles of a user
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response{data=[]models.RoleResponse}
// @Failure 404 {object} response.Response
// @Router /users/{id}/roles [get]
func (h *RoleHandler) RolesOfUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	roles, err := h.roleService.RolesOfUser(c.Context(), id)
	if err != nil {
		return roleError(c, err, "Failed to get roles")
	}
	return response.Success(c, "Roles retrieved successfully", roleResponses(roles))
}

// UsersWithRoles lists users with their roles
// @Summary Users with roles
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.UserResponse}
// @Router /roles/users [get]
func (h *RoleHandler) UsersWithRoles(c *fiber.Ctx) error {
	users, err := h.roleService.UsersWithRoles(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get users")
	}

	result := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, u.ToResponse())
	}
	return response.Success(c, "Users retrieved successfully", result)
}

// ListPermissions lists every permission
// @Summary List permissions
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Permission}
// @Router /permissions [get]
func (h *RoleHandler) ListPermissions(c *fiber.Ctx) error {
	perms, err := h.roleService.ListPermissions(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get permissions")
	}
	return response.Success(c, "Permissions retrieved successfully", perms)
}

// SetPermissions replaces the permissions of a role
// @Summary Set role permissions
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Role ID"
// @Param body body services.SetPermissionsInput true "Permission ids"
// @Success 200 {object} response.Response{data=models.RoleResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /roles/{id}/permissions [put]
func (h *RoleHandler) SetPermissions(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req services.SetPermissionsInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	role, err := h.roleService.SetPermissions(c.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		return roleError(c, err, "Failed to update permissions")
	}
	return response.Success(c, "Permissions updated successfully", role.ToResponse())
}
