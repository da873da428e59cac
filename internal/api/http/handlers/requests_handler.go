package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
)

// RequestsHandler serves the maintenance request endpoints.
type RequestsHandler struct {
	service *service.MaintenanceService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(maintenanceService *service.MaintenanceService) *RequestsHandler {
	return &RequestsHandler{service: maintenanceService}
}

// Submit POST /requests.
func (h *RequestsHandler) Submit(c *fiber.Ctx) error {
	cmd, err := dto.DecodeSubmitRequest(c.Body())
	if err != nil {
		return err
	}
	req, err := h.service.Submit(c.UserContext(), cmd)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewSubmitResponse(req))
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	filter, err := service.ParseListFilter(c.Query("priority"))
	if err != nil {
		return err
	}
	requests, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(requests))
}
