package server

import (
	"time"

	"questhub/internal/models"
	"questhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateChallenge handles POST /api/workspaces/:id/challenges
func (s *Server) CreateChallenge(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name                string     `json:"name"`
		Description         string     `json:"description"`
		AllowSelfEnrollment bool       `json:"allow_self_enrollment"`
		StartsAt            *time.Time `json:"starts_at"`
		EndsAt              *time.Time `json:"ends_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	challenge, err := s.challengeService.Create(c.Context(), service.CreateChallengeInput{
		CreatorID:           currentUserID(c),
		WorkspaceID:         workspaceID,
		Name:                req.Name,
		Description:         req.Description,
		AllowSelfEnrollment: req.AllowSelfEnrollment,
		StartsAt:            req.StartsAt,
		EndsAt:              req.EndsAt,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(challenge)
}

// GetChallenges handles GET /api/workspaces/:id/challenges
func (s *Server) GetChallenges(c *fiber.Ctx) error {
	workspaceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	challenges, err := s.challengeService.List(c.Context(), currentUserID(c), workspaceID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(challenges)
}

// SetChallengeStatus handles PUT /api/challenges/:id/status
func (s *Server) SetChallengeStatus(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("status is required"))
	}

	challenge, err := s.challengeService.SetStatus(c.Context(),
		currentUserID(c), challengeID, models.ChallengeStatus(req.Status))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(challenge)
}

// CreateActivity handles POST /api/challenges/:id/activities
func (s *Server) CreateActivity(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name         string  `json:"name"`
		Description  string  `json:"description"`
		RewardType   string  `json:"reward_type"`
		BasePoints   int64   `json:"base_points"`
		RewardAmount int64   `json:"reward_amount"`
		SKUID        *string `json:"sku_id"`
		SKUValue     int64   `json:"sku_value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	activity, err := s.challengeService.CreateActivity(c.Context(), service.CreateActivityInput{
		CreatorID:    currentUserID(c),
		ChallengeID:  challengeID,
		Name:         req.Name,
		Description:  req.Description,
		RewardType:   models.RewardType(req.RewardType),
		BasePoints:   req.BasePoints,
		RewardAmount: req.RewardAmount,
		SKUID:        req.SKUID,
		SKUValue:     req.SKUValue,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

// GetActivities handles GET /api/challenges/:id/activities
func (s *Server) GetActivities(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	activities, err := s.challengeService.ListActivities(c.Context(), currentUserID(c), challengeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(activities)
}
