package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v3"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/middleware"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/service"
)

type ExportHandler struct {
	searchSvc   *service.SearchService
	outreachSvc *service.OutreachService
}

func NewExportHandler(searchSvc *service.SearchService, outreachSvc *service.OutreachService) *ExportHandler {
	return &ExportHandler{searchSvc: searchSvc, outreachSvc: outreachSvc}
}

// ExportCSV handles POST /api/export/csv
// Runs the search for the posted FilterSpec and streams the ranked results
// as a CSV download.
func (h *ExportHandler) ExportCSV(c fiber.Ctx) error {
	var spec model.FilterSpec
	if err := c.Bind().JSON(&spec); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	resp, err := h.searchSvc.Search(c.Context(), spec)
	if err != nil {
		return searchErrorResponse(c, err)
	}

	var buf bytes.Buffer
	if err := h.outreachSvc.RenderCSV(&buf, resp.Data); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "CSV rendering failed")
	}

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename=podcast_channels.csv`)
	return c.Send(buf.Bytes())
}
