package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"swipely/internal/config"
	"swipely/internal/events"
	"swipely/internal/metrics"
	"swipely/internal/organizations"
)

const (
	errInvalidRequest = "Invalid request"
)

// IngestRequest is the body of an ingestion call.
type IngestRequest struct {
	OrganizationSlug string              `json:"organizationSlug"`
	Events           []events.EventInput `json:"events"`
}

// CreateEventsPublicAPIHandler stores a batch of interaction events. Invalid
// events are reported back individually; the rest of the batch is kept.
func CreateEventsPublicAPIHandler(ctx *cartridge.Context) error {
	ctx.Logger.Debug("Received events request", slog.String("method", ctx.Method()), slog.String("path", ctx.Path()))

	var req IngestRequest
	if err := ctx.BodyParser(&req); err != nil {
		ctx.Logger.Debug("Failed to parse events request", slog.Any("error", err))
		return ingestError(ctx, http.StatusBadRequest, errInvalidRequest, "INVALID_PAYLOAD")
	}
	if strings.TrimSpace(req.OrganizationSlug) == "" || len(req.Events) == 0 {
		return ingestError(ctx, http.StatusBadRequest, "organizationSlug and at least one event are required", "INVALID_PAYLOAD")
	}

	result, err := collect(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrBatchTooLarge):
			return ingestError(ctx, http.StatusRequestEntityTooLarge, err.Error(), "BATCH_TOO_LARGE")
		case organizations.IsNotFound(err):
			return ingestError(ctx, http.StatusNotFound, "Organization not found", "ORGANIZATION_NOT_FOUND")
		}

		ctx.Logger.Error("Failed to collect events", slog.Any("error", err))
		body := fiber.Map{
			"error": "Failed to collect events",
			"code":  "COLLECTION_ERROR",
		}
		if isBusy(err) {
			body["retryable"] = true
		}
		metrics.Default().ObserveIngest(http.StatusInternalServerError, 0, 0)
		return ctx.Status(http.StatusInternalServerError).JSON(body)
	}

	ctx.Logger.Info("Collected events",
		slog.String("organization", req.OrganizationSlug),
		slog.Int("accepted", result.Accepted),
		slog.Int("rejected", len(result.Rejected)))
	metrics.Default().ObserveIngest(http.StatusAccepted, result.Accepted, len(result.Rejected))
	return ctx.Status(http.StatusAccepted).JSON(result)
}

// CreateEventsBeaconHandler handles batches sent with navigator.sendBeacon,
// which posts text/plain and ignores the response. It always answers 202.
func CreateEventsBeaconHandler(ctx *cartridge.Context) error {
	var req IngestRequest
	if err := json.Unmarshal(ctx.Body(), &req); err != nil {
		ctx.Logger.Debug("Failed to parse beacon request", slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted)
	}
	if len(req.Events) == 0 {
		return ctx.SendStatus(http.StatusAccepted)
	}

	result, err := collect(ctx, req)
	if err != nil {
		ctx.Logger.Debug("Failed to collect beacon events",
			slog.String("organization", req.OrganizationSlug),
			slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted)
	}

	metrics.Default().ObserveIngest(http.StatusAccepted, result.Accepted, len(result.Rejected))
	return ctx.SendStatus(http.StatusAccepted)
}

func collect(ctx *cartridge.Context, req IngestRequest) (*events.CollectResult, error) {
	return events.CollectEvents(
		ctx.UserContext(),
		ctx.DBManager.GetConnection(),
		ctx.Logger,
		req.OrganizationSlug,
		req.Events,
		config.GetConfig().IngestMaxBatch,
	)
}

func ingestError(ctx *cartridge.Context, status int, message, code string) error {
	metrics.Default().ObserveIngest(status, 0, 0)
	return ctx.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
