package server

import (
	"errors"

	"questhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetMyRewards handles GET /api/workspaces/:id/rewards/me. Partner failure
// reasons are operational detail; participants see the status only, managing
// roles see the full entry.
func (s *Server) GetMyRewards(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)

	membership, err := s.membershipRepo.Get(c.Context(), workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondServiceError(c,
				models.NewForbiddenError("you are not a member of this workspace"))
		}
		return respondServiceError(c, models.NewInternalError(err))
	}

	rewards, err := s.ledgerService.ListForUser(c.Context(), userID, workspaceID)
	if err != nil {
		return respondServiceError(c, err)
	}

	if membership.Role == models.MembershipRoleParticipant {
		for _, reward := range rewards {
			reward.FailureReason = ""
		}
	}

	return c.JSON(rewards)
}
