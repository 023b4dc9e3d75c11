package handlers

import (
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/pagination"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuditHandler handles the audit log (bitácora) endpoint
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List pages through the audit log, newest first
// @Summary List audit log
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD), inclusive"
// @Param actor query string false "Actor or subject user name contains"
// @Param action query string false "Action contains"
// @Success 200 {object} pagination.Response{data=[]repositories.AuditRow}
// @Failure 400 {object} response.Response
// @Router /audit-log [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	rows, total, err := h.auditService.List(c.Context(), services.AuditQuery{
		From:   c.Query("from"),
		To:     c.Query("to"),
		Actor:  c.Query("actor"),
		Action: c.Query("action"),
	}, params.Offset, params.Limit)
	if err != nil {
		if ok, resp := invalidInput(c, err); ok {
			return resp
		}
		return response.InternalServerError(c, "Failed to get audit log")
	}

	return c.JSON(pagination.NewResponse(rows, params, total))
}
