package server

import (
	"questhub/internal/models"
	"questhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateWorkspace handles POST /api/workspaces
func (s *Server) CreateWorkspace(c *fiber.Ctx) error {
	var req struct {
		Name                string `json:"name"`
		Slug                string `json:"slug"`
		AllowSelfEnrollment bool   `json:"allow_self_enrollment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	workspace, err := s.workspaceService.Create(c.Context(), service.CreateWorkspaceInput{
		CreatorID:           currentUserID(c),
		Name:                req.Name,
		Slug:                req.Slug,
		AllowSelfEnrollment: req.AllowSelfEnrollment,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workspace)
}

// GetMyMemberships handles GET /api/workspaces/memberships/me
func (s *Server) GetMyMemberships(c *fiber.Ctx) error {
	memberships, err := s.workspaceService.ListMemberships(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(memberships)
}

// GetWorkspaceMembers handles GET /api/workspaces/:id/members
func (s *Server) GetWorkspaceMembers(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Any member may see the roster; non-members get nothing.
	if _, err := s.membershipRepo.Get(c.Context(), workspaceID, currentUserID(c)); err != nil {
		return respondServiceError(c,
			models.NewForbiddenError("you are not a member of this workspace"))
	}

	members, err := s.membershipRepo.ListByWorkspace(c.Context(), workspaceID)
	if err != nil {
		return respondServiceError(c, models.NewInternalError(err))
	}
	return c.JSON(members)
}

// AddWorkspaceMember handles POST /api/workspaces/:id/members
func (s *Server) AddWorkspaceMember(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id and role are required"))
	}

	membership, err := s.workspaceService.AddMember(c.Context(),
		currentUserID(c), workspaceID, req.UserID, models.MembershipRole(req.Role))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(membership)
}

// ChangeMemberRole handles PUT /api/workspaces/:id/members/:userId/role
func (s *Server) ChangeMemberRole(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.workspaceService.ChangeRole(c.Context(),
		currentUserID(c), workspaceID, userID, models.MembershipRole(req.Role)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "role updated"})
}

// RemoveWorkspaceMember handles DELETE /api/workspaces/:id/members/:userId
func (s *Server) RemoveWorkspaceMember(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.workspaceService.RemoveMember(c.Context(),
		currentUserID(c), workspaceID, userID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "member removed"})
}

// ConfigureIntegration handles PUT /api/workspaces/:id/integration
func (s *Server) ConfigureIntegration(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		WebhookSecret string `json:"webhook_secret"`
		Enabled       bool   `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.workspaceService.ConfigureIntegration(c.Context(),
		currentUserID(c), workspaceID, req.WebhookSecret, req.Enabled); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "integration updated"})
}
