package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMyPermissions handles GET /api/challenges/:id/permissions/me. It
// exposes the same composed permissions every guarded mutation resolves, so
// clients can render the right controls without guessing.
func (s *Server) GetMyPermissions(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	perms, err := s.permissionService.ResolveForChallenge(c.Context(), currentUserID(c), challengeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(perms)
}
