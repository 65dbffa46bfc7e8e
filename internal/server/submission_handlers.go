package server

import (
	"questhub/internal/models"
	"questhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateSubmission handles POST /api/submissions
func (s *Server) CreateSubmission(c *fiber.Ctx) error {
	var req struct {
		ActivityID uint   `json:"activity_id"`
		Proof      string `json:"proof"`
	}
	if err := c.BodyParser(&req); err != nil || req.ActivityID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("activity_id and proof are required"))
	}

	submission, err := s.submissionService.Create(c.Context(), service.CreateSubmissionInput{
		UserID:     currentUserID(c),
		ActivityID: req.ActivityID,
		Proof:      req.Proof,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(submission)
}

// GetSubmissions handles GET /api/challenges/:id/submissions. Managing users
// see the whole review queue; participants see only their own rows.
func (s *Server) GetSubmissions(c *fiber.Ctx) error {
	challengeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	submissions, err := s.submissionService.ListForChallenge(c.Context(), currentUserID(c), challengeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(submissions)
}

// GetSubmission handles GET /api/submissions/:id
func (s *Server) GetSubmission(c *fiber.Ctx) error {
	submissionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	submission, err := s.submissionService.Get(c.Context(), currentUserID(c), submissionID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(submission)
}

// ReviewSubmission handles POST /api/submissions/:id/review
func (s *Server) ReviewSubmission(c *fiber.Ctx) error {
	submissionID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Action string `json:"action"`
		Notes  string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil || req.Action == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("action is required"))
	}

	submission, err := s.reviewService.Review(c.Context(), service.ReviewInput{
		SubmissionID: submissionID,
		ReviewerID:   currentUserID(c),
		Action:       req.Action,
		Notes:        req.Notes,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(submission)
}
