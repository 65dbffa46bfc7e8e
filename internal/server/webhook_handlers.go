package server

import (
	"github.com/gofiber/fiber/v2"
)

// PartnerWebhook handles POST /api/webhooks/partner/:workspaceId. The body
// is passed through raw: the signature covers the exact bytes the partner
// sent, so no parsing happens before the pipeline runs.
func (s *Server) PartnerWebhook(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "workspaceId")
	if err != nil {
		return nil
	}

	signature := c.Get("X-Webhook-Signature")
	result, err := s.webhookService.Process(c.Context(), workspaceID, c.Body(), signature)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
