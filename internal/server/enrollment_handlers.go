package server

import (
	"questhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Enroll handles POST /api/challenges/:id/enroll
func (s *Server) Enroll(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	enrollment, err := s.enrollmentService.Enroll(c.Context(), currentUserID(c), challengeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

// InviteParticipant handles POST /api/challenges/:id/invite
func (s *Server) InviteParticipant(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	enrollment, err := s.enrollmentService.Invite(c.Context(),
		currentUserID(c), req.UserID, challengeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

// Withdraw handles POST /api/challenges/:id/withdraw
func (s *Server) Withdraw(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.enrollmentService.Withdraw(c.Context(), currentUserID(c), challengeID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "withdrawn"})
}

// RemoveEnrollment handles DELETE /api/challenges/:id/enrollments/:userId
func (s *Server) RemoveEnrollment(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.enrollmentService.Remove(c.Context(), currentUserID(c), userID, challengeID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "enrollment removed"})
}

// GetEnrollments handles GET /api/challenges/:id/enrollments
func (s *Server) GetEnrollments(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	enrollments, err := s.enrollmentService.ListForChallenge(c.Context(), currentUserID(c), challengeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(enrollments)
}
