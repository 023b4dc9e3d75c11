package handlers

import (
	"errors"
	"strings"

	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/pagination"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HistoryHandler handles dose history endpoints
type HistoryHandler struct {
	doseService *services.DoseService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(doseService *services.DoseService) *HistoryHandler {
	return &HistoryHandler{doseService: doseService}
}

func historyError(c *fiber.Ctx, err error, fallback string) error {
	if ok, resp := invalidInput(c, err); ok {
		return resp
	}

	var dup *services.DuplicateDoseError
	switch {
	case errors.As(err, &dup):
		return response.Conflict(c, dup.Error())
	case errors.Is(err, services.ErrInsufficientStock):
		return response.BadRequest(c, "Insufficient stock for this vaccine")
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrVaccineNotFound):
		return response.NotFound(c, "Vaccine not found or inactive")
	case errors.Is(err, services.ErrHistoryNotFound):
		return response.NotFound(c, "History record not found")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// Apply registers an administered dose
// @Summary Apply dose
// @Description Register a dose, decrement stock and write the audit entry in one transaction
// @Tags History
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ApplyDoseInput true "Dose data"
// @Success 201 {object} response.Response{data=models.HistoryResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /history [post]
func (h *HistoryHandler) Apply(c *fiber.Ctx) error {
	var req services.ApplyDoseInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(req.ResponsibleParty) == "" {
		req.ResponsibleParty = middleware.Actor(c)
	}

	record, err := h.doseService.ApplyDose(c.Context(), &req)
	if err != nil {
		return historyError(c, err, "Failed to register dose")
	}
	return response.Created(c, "Dose registered successfully", record.ToResponse())
}

// List pages through the dose history
// @Summary List dose history
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD), inclusive"
// @Param user_id query int false "Filter by user"
// @Success 200 {object} pagination.Response{data=[]models.HistoryResponse}
// @Failure 400 {object} response.Response
// @Router /history [get]
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	from, err := domain.ParseOptionalDate(c.Query("from"))
	if err != nil {
		return response.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
	}
	to, err := domain.ParseOptionalDate(c.Query("to"))
	if err != nil {
		return response.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
	}
	userID, ok := queryID(c, "user_id")
	if !ok {
		return response.BadRequest(c, "Invalid user_id")
	}

	filter := repositories.HistoryFilter{From: from, To: to, UserID: userID}
	records, total, err := h.doseService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to get history")
	}

	return c.JSON(pagination.NewResponse(records, params, total))
}

// GetByNationalID returns a patient and their history
// @Summary Patient history by national id
// @Description Patients may only read their own record
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param nationalId path string true "National ID"
// @Success 200 {object} response.Response{data=services.PatientHistory}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /history/{nationalId} [get]
func (h *HistoryHandler) GetByNationalID(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	nationalID := c.Params("nationalId")
	if !identity.IsStaff() && identity.NationalID != nationalID {
		return response.Forbidden(c, "You can only view your own vaccination history")
	}

	history, err := h.doseService.GetByNationalID(c.Context(), nationalID)
	if err != nil {
		return historyError(c, err, "Failed to get history")
	}
	return response.Success(c, "History retrieved successfully", history)
}

// GetByUserID returns a patient and their history
// @Summary Patient history by user id
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} response.Response{data=services.PatientHistory}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /history/user/{userId} [get]
func (h *HistoryHandler) GetByUserID(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	if identity == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	userID, ok := paramID(c, "userId")
	if !ok {
		return invalidID(c)
	}
	if !identity.IsStaff() && identity.UserID != userID {
		return response.Forbidden(c, "You can only view your own vaccination history")
	}

	history, err := h.doseService.GetByUserID(c.Context(), userID)
	if err != nil {
		return historyError(c, err, "Failed to get history")
	}
	return response.Success(c, "History retrieved successfully", history)
}

// Edit changes the application date and responsible party of a record
// @Summary Edit history record
// @Tags History
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "History record ID"
// @Param body body services.EditHistoryInput true "New values"
// @Success 200 {object} response.Response{data=models.HistoryResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /history/{id} [put]
func (h *HistoryHandler) Edit(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req services.EditHistoryInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	record, err := h.doseService.EditHistoryRecord(c.Context(), id, &req, middleware.Actor(c))
	if err != nil {
		return historyError(c, err, "Failed to update history record")
	}
	return response.Success(c, "History record updated successfully", record.ToResponse())
}

// Delete removes a history record
// @Summary Delete history record
// @Tags History
// @Produce json
// @Security BearerAuth
// @Param id path int true "History record ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /history/{id} [delete]
func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.doseService.DeleteHistoryRecord(c.Context(), id, middleware.Actor(c)); err != nil {
		return historyError(c, err, "Failed to delete history record")
	}
	return response.Success(c, "History record deleted successfully", nil)
}
