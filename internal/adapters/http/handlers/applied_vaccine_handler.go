package handlers

import (
	"errors"

	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/pagination"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AppliedVaccineHandler handles the applied vaccine register
type AppliedVaccineHandler struct {
	appliedService *services.AppliedVaccineService
}

// NewAppliedVaccineHandler creates a new applied vaccine handler
func NewAppliedVaccineHandler(appliedService *services.AppliedVaccineService) *AppliedVaccineHandler {
	return &AppliedVaccineHandler{appliedService: appliedService}
}

func appliedError(c *fiber.Ctx, err error, fallback string) error {
	if ok, resp := invalidInput(c, err); ok {
		return resp
	}
	switch {
	case errors.Is(err, services.ErrAppliedVaccineNotFound):
		return response.NotFound(c, "Applied vaccine record not found")
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// List pages through the register
// @Summary List applied vaccines
// @Tags Applied Vaccines
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD), inclusive"
// @Param user_id query int false "Filter by user"
// @Success 200 {object} pagination.Response{data=[]models.AppliedVaccineResponse}
// @Failure 400 {object} response.Response
// @Router /applied-vaccines [get]
func (h *AppliedVaccineHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	userID, ok := queryID(c, "user_id")
	if !ok {
		return response.BadRequest(c, "Invalid user_id")
	}

	rows, total, err := h.appliedService.List(c.Context(), services.AppliedVaccineQuery{
		From:   c.Query("from"),
		To:     c.Query("to"),
		UserID: userID,
	}, params.Offset, params.Limit)
	if err != nil {
		return appliedError(c, err, "Failed to get applied vaccines")
	}

	return c.JSON(pagination.NewResponse(rows, params, total))
}

// Create adds a register entry
// @Summary Create applied vaccine
// @Tags Applied Vaccines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.AppliedVaccineInput true "Register entry"
// @Success 201 {object} response.Response{data=models.AppliedVaccineResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applied-vaccines [post]
func (h *AppliedVaccineHandler) Create(c *fiber.Ctx) error {
	var req services.AppliedVaccineInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	record, err := h.appliedService.Create(c.Context(), &req, middleware.Actor(c))
	if err != nil {
		return appliedError(c, err, "Failed to create applied vaccine")
	}
	return response.Created(c, "Applied vaccine created successfully", record)
}

// Update changes a register entry
// @Summary Update applied vaccine
// @Tags Applied Vaccines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Param body body services.AppliedVaccineInput true "Register entry"
// @Success 200 {object} response.Response{data=models.AppliedVaccineResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applied-vaccines/{id} [put]
func (h *AppliedVaccineHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req services.AppliedVaccineInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	record, err := h.appliedService.Update(c.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		return appliedError(c, err, "Failed to update applied vaccine")
	}
	return response.Success(c, "Applied vaccine updated successfully", record)
}

// Delete removes a register entry
// @Summary Delete applied vaccine
// @Tags Applied Vaccines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applied-vaccines/{id} [delete]
func (h *AppliedVaccineHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.appliedService.Delete(c.Context(), id, middleware.Actor(c)); err != nil {
		return appliedError(c, err, "Failed to delete applied vaccine")
	}
	return response.Success(c, "Applied vaccine deleted successfully", nil)
}
