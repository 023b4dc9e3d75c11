package handlers

import (
	"errors"

	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ScheduleHandler handles dose schedule endpoints
type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

func scheduleError(c *fiber.Ctx, err error, fallback string) error {
	if ok, resp := invalidInput(c, err); ok {
		return resp
	}
	switch {
	case errors.Is(err, services.ErrScheduleNotFound):
		return response.NotFound(c, "Schedule not found")
	case errors.Is(err, services.ErrVaccineNotFound):
		return response.NotFound(c, "Vaccine not found")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// List lists dose schedules
// @Summary List dose schedules
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param vaccine_id query int false "Filter by vaccine"
// @Success 200 {object} response.Response{data=[]models.DoseScheduleResponse}
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *fiber.Ctx) error {
	vaccineID, ok := queryID(c, "vaccine_id")
	if !ok {
		return response.BadRequest(c, "Invalid vaccine_id")
	}

	schedules, err := h.scheduleService.List(c.Context(), vaccineID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get schedules")
	}

	result := make([]*models.DoseScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		result = append(result, s.ToResponse())
	}
	return response.Success(c, "Schedules retrieved successfully", result)
}

// Create creates a dose schedule
// @Summary Create dose schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ScheduleInput true "Schedule data"
// @Success 201 {object} response.Response{data=models.DoseScheduleResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *fiber.Ctx) error {
	var req services.ScheduleInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	schedule, err := h.scheduleService.Create(c.Context(), &req, middleware.Actor(c))
	if err != nil {
		return scheduleError(c, err, "Failed to create schedule")
	}
	return response.Created(c, "Schedule created successfully", schedule.ToResponse())
}

// Update updates a dose schedule
// @Summary Update dose schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule ID"
// @Param body body services.ScheduleInput true "Schedule data"
// @Success 200 {object} response.Response{data=models.DoseScheduleResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req services.ScheduleInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	schedule, err := h.scheduleService.Update(c.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		return scheduleError(c, err, "Failed to update schedule")
	}
	return response.Success(c, "Schedule updated successfully", schedule.ToResponse())
}

// Delete deletes a dose schedule
// @Summary Delete dose schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.scheduleService.Delete(c.Context(), id, middleware.Actor(c)); err != nil {
		return scheduleError(c, err, "Failed to delete schedule")
	}
	return response.Success(c, "Schedule deleted successfully", nil)
}
