package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/middleware"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/service"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/youtube"
)

type SearchHandler struct {
	svc *service.SearchService
}

func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search handles POST /api/search
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var spec model.FilterSpec
	if err := c.Bind().JSON(&spec); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	resp, err := h.svc.Search(c.Context(), spec)
	if err != nil {
		return searchErrorResponse(c, err)
	}

	if resp.UsingFallback {
		Metrics.FallbackSearches.Inc()
	}
	Metrics.SearchesTotal.Inc()

	return c.JSON(resp)
}

// searchErrorResponse maps orchestrator errors onto the API error envelope.
func searchErrorResponse(c fiber.Ctx, err error) error {
	var invalidErr *service.InvalidFilterError
	if errors.As(err, &invalidErr) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILTER", invalidErr.Msg)
	}

	var apiErr *youtube.APIError
	if errors.As(err, &apiErr) {
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "YouTube API request failed")
	}

	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Search failed")
}
