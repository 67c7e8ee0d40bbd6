package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civiops/helpdesk-service/internal/auth"
	"github.com/civiops/helpdesk-service/internal/service"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// ReportsHandler serves ticket snapshots and spreadsheet exports.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// MonthlyReport GET /reports/monthly?year=&month=. Defaults to the current
// calendar month.
func (h *ReportsHandler) MonthlyReport(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	year, month, err := parsePeriod(c)
	if err != nil {
		return err
	}
	snapshot, err := h.reports.MonthlySnapshot(c.UserContext(), identity, year, month)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}

// MonthlyReportXLSX GET /reports/monthly/export.
func (h *ReportsHandler) MonthlyReportXLSX(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	year, month, err := parsePeriod(c)
	if err != nil {
		return err
	}
	snapshot, err := h.reports.MonthlySnapshot(c.UserContext(), identity, year, month)
	if err != nil {
		return err
	}
	payload, err := h.reports.ExportXLSX(snapshot)
	if err != nil {
		return apperrors.MapError(err)
	}
	filename := fmt.Sprintf("tickets-%04d-%02d.xlsx", year, month)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(payload)
}

func parsePeriod(c *fiber.Ctx) (int, time.Month, error) {
	now := time.Now()
	year, err := strconv.Atoi(c.Query("year", strconv.Itoa(now.Year())))
	if err != nil {
		return 0, 0, apperrors.NewValidationError("invalid year", nil)
	}
	monthNum, err := strconv.Atoi(c.Query("month", strconv.Itoa(int(now.Month()))))
	if err != nil || monthNum < 1 || monthNum > 12 {
		return 0, 0, apperrors.NewValidationError("invalid month", nil)
	}
	return year, time.Month(monthNum), nil
}
