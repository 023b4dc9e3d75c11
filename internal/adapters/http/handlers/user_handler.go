package handlers

import (
	"errors"

	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// userError maps user service errors to responses
func userError(c *fiber.Ctx, err error, fallback string) error {
	if ok, resp := invalidInput(c, err); ok {
		return resp
	}
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrNationalIDTaken):
		return response.Conflict(c, "national_id is already registered")
	case errors.Is(err, services.ErrEmailTaken):
		return response.Conflict(c, "email is already registered")
	case errors.Is(err, services.ErrUserHasHistory):
		return response.Conflict(c, "User has vaccination history and cannot be deleted")
	case errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrOldPasswordWrong),
		errors.Is(err, services.ErrCannotDeleteSelf),
		errors.Is(err, services.ErrUnknownRole):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}

// Register handles public self-registration
// @Summary Register
// @Description Self-registration. New accounts get the Paciente role.
// @Tags Users
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration data"
// @Success 201 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.userService.Register(c.Context(), &req)
	if err != nil {
		return userError(c, err, "Failed to register user")
	}

	return response.Created(c, "User registered successfully", user)
}

// List lists users with their roles
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.UserResponse}
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get users")
	}
	return response.Success(c, "Users retrieved successfully", users)
}

// Get gets a user by id
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	user, err := h.userService.GetByID(c.Context(), id)
	if err != nil {
		return userError(c, err, "Failed to get user")
	}
	return response.Success(c, "User retrieved successfully", user)
}

// GetByNationalID looks a patient up by national id
// @Summary Get user by national id
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param nationalId path string true "National ID"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 404 {object} response.Response
// @Router /users/national-id/{nationalId} [get]
func (h *UserHandler) GetByNationalID(c *fiber.Ctx) error {
	user, err := h.userService.GetByNationalID(c.Context(), c.Params("nationalId"))
	if err != nil {
		return userError(c, err, "Failed to get user")
	}
	return response.Success(c, "User retrieved successfully", user)
}

// Update updates a user
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.UserInput true "User data"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req services.UserInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.userService.Update(c.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		return userError(c, err, "Failed to update user")
	}
	return response.Success(c, "User updated successfully", user)
}

type statusRequest struct {
	IsActive *bool `json:"is_active"`
}

// SetStatus activates or deactivates a user; an empty body toggles
// @Summary Set user status
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body statusRequest false "Desired state"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/status [patch]
func (h *UserHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req statusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}

	active, err := h.userService.SetStatus(c.Context(), id, req.IsActive, middleware.Actor(c))
	if err != nil {
		return userError(c, err, "Failed to update user status")
	}
	return response.Success(c, "User status updated", fiber.Map{"is_active": active})
}

// Delete deletes a user without vaccination history
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	identity := middleware.Identity(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.userService.Delete(c.Context(), id, identity.UserID, identity.Name); err != nil {
		return userError(c, err, "Failed to delete user")
	}
	return response.Success(c, "User deleted successfully", nil)
}

// SetRoles replaces the roles of a user
// @Summary Assign roles
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.SetRolesInput true "Role ids"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/roles [put]
func (h *UserHandler) SetRoles(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req services.SetRolesInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.userService.SetRoles(c.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		return userError(c, err, "Failed to assign roles")
	}
	return response.Success(c, "Roles assigned successfully", user)
}

// GetProfile returns the current user's profile
// @Summary Get own profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Router /profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.userService.GetProfile(c.Context(), identity.UserID)
	if err != nil {
		return userError(c, err, "Failed to get profile")
	}
	return response.Success(c, "Profile retrieved successfully", user)
}

// UpdateProfile updates the current user's profile
// @Summary Update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UserInput true "Profile data"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /profile [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.UserInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.userService.UpdateProfile(c.Context(), identity.UserID, &req)
	if err != nil {
		return userError(c, err, "Failed to update profile")
	}
	return response.Success(c, "Profile updated successfully", user)
}

// ChangePassword changes the current user's password
// @Summary Change password
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Old and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /profile/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ChangePasswordInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.userService.ChangePassword(c.Context(), identity.UserID, &req); err != nil {
		return userError(c, err, "Failed to change password")
	}
	return response.Success(c, "Password changed successfully", nil)
}
