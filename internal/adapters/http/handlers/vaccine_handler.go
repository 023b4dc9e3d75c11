package handlers

import (
	"errors"
	"strconv"

	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// VaccineHandler handles vaccine catalogue and stock endpoints
type VaccineHandler struct {
	vaccineService    *services.VaccineService
	lowStockThreshold int
}

// NewVaccineHandler creates a new vaccine handler
func NewVaccineHandler(vaccineService *services.VaccineService, lowStockThreshold int) *VaccineHandler {
	return &VaccineHandler{
		vaccineService:    vaccineService,
		lowStockThreshold: lowStockThreshold,
	}
}

func vaccineError(c *fiber.Ctx, err error, fallback string) error {
	if ok, resp := invalidInput(c, err); ok {
		return resp
	}
	switch {
	case errors.Is(err, services.ErrVaccineNotFound):
		return response.NotFound(c, "Vaccine not found")
	case errors.Is(err, services.ErrNegativeStock):
		return response.BadRequest(c, "Stock cannot be negative")
	case errors.Is(err, services.ErrInsufficientStock):
		return response.BadRequest(c, "Insufficient stock")
	case errors.Is(err, services.ErrVaccineInUse):
		return response.Conflict(c, "Vaccine has registered doses and cannot be deleted")
	default:
		return response.InternalServerError(c, fallback)
	}
}

func vaccineResponses(vaccines []*models.Vaccine) []*models.VaccineResponse {
	result := make([]*models.VaccineResponse, 0, len(vaccines))
	for _, v := range vaccines {
		result = append(result, v.ToResponse())
	}
	return result
}

// List lists the vaccine catalogue
// @Summary List vaccines
// @Tags Vaccines
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.VaccineResponse}
// @Router /vaccines [get]
func (h *VaccineHandler) List(c *fiber.Ctx) error {
	vaccines, err := h.vaccineService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get vaccines")
	}
	return response.Success(c, "Vaccines retrieved successfully", vaccineResponses(vaccines))
}

// Get gets a vaccine
// @Summary Get vaccine
// @Tags Vaccines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vaccine ID"
// @Success 200 {object} response.Response{data=models.VaccineResponse}
// @Failure 404 {object} response.Response
// @Router /vaccines/{id} [get]
func (h *VaccineHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	vaccine, err := h.vaccineService.Get(c.Context(), id)
	if err != nil {
		return vaccineError(c, err, "Failed to get vaccine")
	}
	return response.Success(c, "Vaccine retrieved successfully", vaccine.ToResponse())
}

// Create registers a vaccine
// @Summary Create vaccine
// @Tags Vaccines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.VaccineInput true "Vaccine data"
// @Success 201 {object} response.Response{data=models.VaccineResponse}
// @Failure 400 {object} response.Response
// @Router /vaccines [post]
func (h *VaccineHandler) Create(c *fiber.Ctx) error {
	var req services.VaccineInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	vaccine, err := h.vaccineService.Create(c.Context(), &req, middleware.Actor(c))
	if err != nil {
		return vaccineError(c, err, "Failed to create vaccine")
	}
	return response.Created(c, "Vaccine created successfully", vaccine.ToResponse())
}

// Update replaces a vaccine, stock included
// @Summary Update vaccine
// @Tags Vaccines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vaccine ID"
// @Param body body services.VaccineInput true "Vaccine data"
// @Success 200 {object} response.Response{data=models.VaccineResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /vaccines/{id} [put]
func (h *VaccineHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req services.VaccineInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	vaccine, err := h.vaccineService.Update(c.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		return vaccineError(c, err, "Failed to update vaccine")
	}
	return response.Success(c, "Vaccine updated successfully", vaccine.ToResponse())
}

// Delete deletes a vaccine without registered doses
// @Summary Delete vaccine
// @Tags Vaccines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vaccine ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /vaccines/{id} [delete]
func (h *VaccineHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.vaccineService.Delete(c.Context(), id, middleware.Actor(c)); err != nil {
		return vaccineError(c, err, "Failed to delete vaccine")
	}
	return response.Success(c, "Vaccine deleted successfully", nil)
}

// ToggleStatus activates or deactivates a vaccine
// @Summary Toggle vaccine status
// @Tags Vaccines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vaccine ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /vaccines/{id}/status [patch]
func (h *VaccineHandler) ToggleStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	active, err := h.vaccineService.ToggleStatus(c.Context(), id, middleware.Actor(c))
	if err != nil {
		return vaccineError(c, err, "Failed to update vaccine status")
	}
	return response.Success(c, "Vaccine status updated", fiber.Map{"is_active": active})
}

type stockRequest struct {
	StockAvailable *int `json:"stock_available"`
}

// SetStock sets the stock to an absolute value
// @Summary Set vaccine stock
// @Tags Vaccines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vaccine ID"
// @Param body body stockRequest true "New stock"
// @Success 200 {object} response.Response{data=models.VaccineResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /vaccines/{id}/stock [put]
func (h *VaccineHandler) SetStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.StockAvailable == nil {
		return response.MissingFields(c, "stock_available")
	}

	vaccine, err := h.vaccineService.SetStock(c.Context(), id, *req.StockAvailable, middleware.Actor(c))
	if err != nil {
		return vaccineError(c, err, "Failed to update stock")
	}
	return response.Success(c, "Stock updated successfully", vaccine.ToResponse())
}

// ReduceStock takes one dose out of stock
// @Summary Reduce vaccine stock by one
// @Tags Vaccines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vaccine ID"
// @Success 200 {object} response.Response{data=models.VaccineResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /vaccines/{id}/reduce-stock [patch]
func (h *VaccineHandler) ReduceStock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	vaccine, err := h.vaccineService.ReduceStock(c.Context(), id, middleware.Actor(c))
	if err != nil {
		return vaccineError(c, err, "Failed to reduce stock")
	}
	return response.Success(c, "Stock reduced successfully", vaccine.ToResponse())
}

// AppliedToday counts doses of a vaccine applied today
// @Summary Doses applied today
// @Tags Vaccines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vaccine ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /vaccines/{id}/applied-today [get]
func (h *VaccineHandler) AppliedToday(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	count, err := h.vaccineService.AppliedToday(c.Context(), id)
	if err != nil {
		return vaccineError(c, err, "Failed to count applied doses")
	}
	return response.Success(c, "Applied doses counted", fiber.Map{"vaccine_id": id, "applied_today": count})
}

// LowStock lists active vaccines at or below the stock threshold
// @Summary Low stock vaccines
// @Tags Vaccines
// @Produce json
// @Security BearerAuth
// @Param threshold query int false "Stock threshold"
// @Success 200 {object} response.Response{data=[]models.VaccineResponse}
// @Router /vaccines/low-stock [get]
func (h *VaccineHandler) LowStock(c *fiber.Ctx) error {
	threshold := h.lowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return response.BadRequest(c, "Invalid threshold")
		}
		threshold = v
	}

	vaccines, err := h.vaccineService.LowStock(c.Context(), threshold)
	if err != nil {
		return response.InternalServerError(c, "Failed to get vaccines")
	}
	return response.Success(c, "Vaccines retrieved successfully", vaccineResponses(vaccines))
}
