package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/quota"
)

type QuotaHandler struct {
	tracker *quota.Tracker
}

func NewQuotaHandler(tracker *quota.Tracker) *QuotaHandler {
	return &QuotaHandler{tracker: tracker}
}

// Status handles GET /api/quota/status
func (h *QuotaHandler) Status(c fiber.Ctx) error {
	status, alerts := h.tracker.Status()
	return c.JSON(model.QuotaStatusResponse{
		Quota:         status,
		Alerts:        alerts,
		UsingFallback: h.tracker.ShouldUseFallback(),
		Timestamp:     time.Now().UTC(),
	})
}

// Reset handles POST /api/quota/reset
// Resets local tracking only, not the API's actual quota.
func (h *QuotaHandler) Reset(c fiber.Ctx) error {
	h.tracker.Reset()

	status, alerts := h.tracker.Status()
	return c.JSON(model.QuotaStatusResponse{
		Quota:         status,
		Alerts:        alerts,
		UsingFallback: h.tracker.ShouldUseFallback(),
		Timestamp:     time.Now().UTC(),
	})
}
