package handlers

import (
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler handles dashboard and report endpoints
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// rangeError answers 400 for a malformed from/to pair
func rangeError(c *fiber.Ctx, err error) error {
	if ok, resp := invalidInput(c, err); ok {
		return resp
	}
	return response.BadRequest(c, "Invalid date range")
}

// Dashboard returns dashboard totals
// @Summary Dashboard
// @Description Users, doses in range and today, month-over-month growth, doses per vaccine and recent activity
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD), defaults to the first day of the month"
// @Param to query string false "To date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Response{data=services.DashboardData}
// @Failure 400 {object} response.Response
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	r, err := services.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return rangeError(c, err)
	}

	data, err := h.reportService.Dashboard(c.Context(), r)
	if err != nil {
		return response.InternalServerError(c, "Failed to get dashboard")
	}
	return response.Success(c, "Dashboard retrieved successfully", data)
}

// VaccinesApplied lists doses applied in a range
// @Summary Vaccines applied
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=[]models.HistoryResponse}
// @Router /reports/vaccines-applied [get]
func (h *ReportHandler) VaccinesApplied(c *fiber.Ctx) error {
	r, err := services.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return rangeError(c, err)
	}

	rows, err := h.reportService.VaccinesApplied(c.Context(), r)
	if err != nil {
		return response.InternalServerError(c, "Failed to get report")
	}
	return response.Success(c, "Report retrieved successfully", rows)
}

// VaccineTypes counts doses per vaccine in a range
// @Summary Doses per vaccine
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=[]services.VaccineCount}
// @Router /reports/vaccine-types [get]
func (h *ReportHandler) VaccineTypes(c *fiber.Ctx) error {
	r, err := services.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return rangeError(c, err)
	}

	counts, err := h.reportService.VaccineTypes(c.Context(), r)
	if err != nil {
		return response.InternalServerError(c, "Failed to get report")
	}
	return response.Success(c, "Report retrieved successfully", counts)
}

// MonthlyGrowth counts doses per month
// @Summary Monthly growth
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]services.MonthCount}
// @Router /reports/monthly-growth [get]
func (h *ReportHandler) MonthlyGrowth(c *fiber.Ctx) error {
	counts, err := h.reportService.MonthlyGrowth(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get report")
	}
	return response.Success(c, "Report retrieved successfully", counts)
}

// MonthlyProgress counts doses and registrations per month of a range
// @Summary Monthly progress
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=services.MonthlyProgress}
// @Failure 400 {object} response.Response
// @Router /reports/monthly-progress [get]
func (h *ReportHandler) MonthlyProgress(c *fiber.Ctx) error {
	var missing []string
	if c.Query("from") == "" {
		missing = append(missing, "from")
	}
	if c.Query("to") == "" {
		missing = append(missing, "to")
	}
	if len(missing) > 0 {
		return response.MissingFields(c, missing...)
	}

	r, err := services.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return rangeError(c, err)
	}

	progress, err := h.reportService.MonthlyProgress(c.Context(), r)
	if err != nil {
		return response.InternalServerError(c, "Failed to get report")
	}
	return response.Success(c, "Report retrieved successfully", progress)
}

// AvailableYears lists the years with applied doses
// @Summary Available report years
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]int}
// @Router /reports/available-years [get]
func (h *ReportHandler) AvailableYears(c *fiber.Ctx) error {
	return response.Success(c, "Years retrieved successfully", h.reportService.AvailableYears(c.Context()))
}

// UsersComplete exports every user
// @Summary Export users
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.UserResponse}
// @Router /reports/users-complete [get]
func (h *ReportHandler) UsersComplete(c *fiber.Ctx) error {
	rows, err := h.reportService.UsersComplete(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to export users")
	}
	return response.Success(c, "Users exported successfully", rows)
}

// VaccinesComplete exports the vaccine catalogue
// @Summary Export vaccines
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.VaccineResponse}
// @Router /reports/vaccines-complete [get]
func (h *ReportHandler) VaccinesComplete(c *fiber.Ctx) error {
	rows, err := h.reportService.VaccinesComplete(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to export vaccines")
	}
	return response.Success(c, "Vaccines exported successfully", rows)
}

// AuditComplete exports the audit log
// @Summary Export audit log
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]repositories.AuditRow}
// @Router /reports/audit-complete [get]
func (h *ReportHandler) AuditComplete(c *fiber.Ctx) error {
	rows, err := h.reportService.AuditComplete(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to export audit log")
	}
	return response.Success(c, "Audit log exported successfully", rows)
}

// UpcomingDoses lists doses due from today on
// @Summary Upcoming doses
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.HistoryResponse}
// @Router /reports/upcoming-doses [get]
func (h *ReportHandler) UpcomingDoses(c *fiber.Ctx) error {
	rows, err := h.reportService.UpcomingDoses(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get upcoming doses")
	}
	return response.Success(c, "Upcoming doses retrieved successfully", rows)
}
