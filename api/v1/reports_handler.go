package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"swipely/internal/catalog"
	"swipely/internal/organizations"
	"swipely/internal/reports"
	"swipely/internal/timeframe"
)

// ReportsHandler serves the analytics read endpoints.
type ReportsHandler struct {
	service *reports.Service
}

func NewReportsHandler(service *reports.Service) *ReportsHandler {
	return &ReportsHandler{service: service}
}

// OverviewAction renders the organization-wide report.
// GET /api/v1/organizations/:slug/analytics?range=7d|30d|90d
func (h *ReportsHandler) OverviewAction(ctx *cartridge.Context) error {
	report, err := h.service.Overview(ctx.UserContext(), ctx.Params("slug"), timeframe.ParseRange(ctx.Query("range")))
	if err != nil {
		return reportError(ctx, err)
	}
	return sendReport(ctx, report)
}

// DeepDiveAction renders the report of one content unit.
// GET /api/v1/organizations/:slug/content-units/:publicId/analytics
func (h *ReportsHandler) DeepDiveAction(ctx *cartridge.Context) error {
	req := reports.DeepDiveRequest{
		Slug:          ctx.Params("slug"),
		ContentUnitID: ctx.Params("publicId"),
		Range:         timeframe.ParseRange(ctx.Query("range")),
		Period:        periodFromQuery(ctx.Query("period")),
	}
	if start, end := ctx.Query("startDate"), ctx.Query("endDate"); start != "" || end != "" {
		req.Custom = &timeframe.CustomRange{StartDate: start, EndDate: end}
	}

	report, err := h.service.DeepDive(ctx.UserContext(), req)
	if err != nil {
		return reportError(ctx, err)
	}
	return sendReport(ctx, report)
}

// periodFromQuery keeps an absent period empty so the report compares against
// the preceding window, and maps unknown tags to week-over-week.
func periodFromQuery(raw string) timeframe.Period {
	if raw == "" {
		return ""
	}
	if p, ok := timeframe.ParsePeriod(raw); ok {
		return p
	}
	return timeframe.PeriodWeekOverWeek
}

func sendReport(ctx *cartridge.Context, report any) error {
	body, err := json.Marshal(report)
	if err != nil {
		ctx.Logger.Error("Failed to encode report", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to encode report",
			"code":  "REPORT_ERROR",
		})
	}

	etag := generateETag(body)
	if ctx.Get("If-None-Match") == etag {
		return ctx.Status(http.StatusNotModified).Send(nil)
	}

	ctx.Set("Content-Type", fiber.MIMEApplicationJSON)
	ctx.Set("Cache-Control", "private, no-cache")
	ctx.Set("ETag", etag)
	return ctx.Status(http.StatusOK).Send(body)
}

func reportError(ctx *cartridge.Context, err error) error {
	switch {
	case organizations.IsNotFound(err):
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
			"error": "Organization not found",
			"code":  "ORGANIZATION_NOT_FOUND",
		})
	case catalog.IsNotFound(err):
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
			"error": "Content unit not found",
			"code":  "CONTENT_UNIT_NOT_FOUND",
		})
	case reports.IsTransient(err):
		ctx.Logger.Warn("Report unavailable", slog.Any("error", err))
		ctx.Set("Retry-After", "1")
		return ctx.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"error":     "Report could not be generated in time, please retry",
			"code":      "REPORT_TIMEOUT",
			"retryable": true,
		})
	}

	ctx.Logger.Error("Failed to build report", slog.Any("error", err))
	return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to build report",
		"code":  "REPORT_ERROR",
	})
}
