package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/analysis"
	"github.com/spec-kit/maintenance-service/internal/api/dto"
)

// MsgAnalyzeMethodNotAllowed is returned for anything but POST.
const MsgAnalyzeMethodNotAllowed = "Only POST requests are allowed for analysis."

// AnalysisHandler exposes the keyword classifier.
type AnalysisHandler struct{}

// NewAnalysisHandler constructs handler.
func NewAnalysisHandler() *AnalysisHandler {
	return &AnalysisHandler{}
}

// Analyze POST /requests.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	message, err := dto.DecodeAnalyzeRequest(c.Body())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAnalysisResponse(analysis.Analyze(message)))
}

// MethodNotAllowed answers non-POST calls with a plain message body.
func (h *AnalysisHandler) MethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, fiber.MethodPost)
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"message": MsgAnalyzeMethodNotAllowed})
}
