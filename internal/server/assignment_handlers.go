package server

import (
	"questhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateAssignment handles POST /api/challenges/:id/assignments
func (s *Server) CreateAssignment(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ManagerID uint `json:"manager_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.ManagerID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("manager_id is required"))
	}

	assignment, err := s.assignmentService.Create(c.Context(),
		currentUserID(c), challengeID, req.ManagerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

// GetAssignments handles GET /api/challenges/:id/assignments
func (s *Server) GetAssignments(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	assignments, err := s.assignmentService.List(c.Context(), currentUserID(c), challengeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(assignments)
}

// DeleteAssignment handles DELETE /api/assignments/:id
func (s *Server) DeleteAssignment(c *fiber.Ctx) error {
	assignmentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.assignmentService.Delete(c.Context(), currentUserID(c), assignmentID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "assignment removed"})
}
