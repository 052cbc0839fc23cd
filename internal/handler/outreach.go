package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/middleware"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/service"
)

type OutreachHandler struct {
	svc *service.OutreachService
}

func NewOutreachHandler(svc *service.OutreachService) *OutreachHandler {
	return &OutreachHandler{svc: svc}
}

// Send handles POST /api/outreach
func (h *OutreachHandler) Send(c fiber.Ctx) error {
	var req model.OutreachRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	ids, errMsg := middleware.ValidateChannelIDs(req.ChannelIDs)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.ChannelIDs = ids

	resp := h.svc.SendOutreach(c.Context(), req)
	return c.JSON(resp)
}
