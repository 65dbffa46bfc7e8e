package service

import (
	"context"
	"errors"
	"log/slog"

	"questhub/internal/authz"
	"questhub/internal/models"
	"questhub/internal/observability"
	"questhub/internal/repository"

	"gorm.io/gorm"
)

// Review actions accepted by the submission endpoint.
const (
	ActionManagerApprove = "manager_approve"
	ActionNeedsRevision  = "needs_revision"
	ActionApprove        = "approve"
	ActionReject         = "reject"
)

// ReviewService drives submissions through the review state machine.
// Transitions are linearized per submission by a compare-and-swap on the
// current status, so two concurrent reviewers cannot both succeed.
type ReviewService struct {
	submissionRepo     repository.SubmissionRepository
	ledger             issuer
	resolvePermissions func(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error)
}

// issuer is the slice of LedgerService the review flow needs.
type issuer interface {
	IssueForSubmission(ctx context.Context, submission *models.Submission, issuedBy uint) (*models.RewardIssuance, error)
}

// ReviewInput is one reviewer decision on one submission.
type ReviewInput struct {
	SubmissionID uint
	ReviewerID   uint
	Action       string
	Notes        string
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	submissionRepo repository.SubmissionRepository,
	ledger issuer,
	resolvePermissions func(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error),
) *ReviewService {
	return &ReviewService{
		submissionRepo:     submissionRepo,
		ledger:             ledger,
		resolvePermissions: resolvePermissions,
	}
}

// transitionFor maps an action to its target status and the statuses it may
// transition from.
func transitionFor(action string) (models.SubmissionStatus, []models.SubmissionStatus, error) {
	switch action {
	case ActionManagerApprove:
		return models.SubmissionStatusManagerApproved,
			[]models.SubmissionStatus{models.SubmissionStatusPending}, nil
	case ActionNeedsRevision:
		return models.SubmissionStatusNeedsRevision,
			[]models.SubmissionStatus{models.SubmissionStatusPending}, nil
	case ActionApprove:
		return models.SubmissionStatusApproved,
			[]models.SubmissionStatus{models.SubmissionStatusPending, models.SubmissionStatusManagerApproved}, nil
	case ActionReject:
		return models.SubmissionStatusRejected,
			[]models.SubmissionStatus{models.SubmissionStatusPending, models.SubmissionStatusManagerApproved}, nil
	default:
		return "", nil, models.NewValidationError("unknown review action: " + action)
	}
}

// Review applies one reviewer decision. Guard order: existence, self-approval,
// capability, then the status compare-and-swap. On final approval the reward
// issuance is created best-effort; an issuance failure never rolls back the
// review decision.
func (s *ReviewService) Review(ctx context.Context, in ReviewInput) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, in.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Submission", in.SubmissionID)
		}
		return nil, models.NewInternalError(err)
	}

	// Permissions are resolved against the submission's own challenge,
	// freshly, on every attempt.
	perms, err := s.resolvePermissions(ctx, in.ReviewerID, submission.ChallengeID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanApprove(perms, submission.UserID, in.ReviewerID); err != nil {
		observability.ReviewDecisions.WithLabelValues(in.Action, "forbidden").Inc()
		return nil, err
	}

	target, from, err := transitionFor(in.Action)
	if err != nil {
		return nil, err
	}

	if submission.Status.IsTerminal() {
		observability.ReviewDecisions.WithLabelValues(in.Action, "conflict").Inc()
		return nil, models.NewConflictError("submission already reviewed")
	}

	err = s.submissionRepo.UpdateStatusCAS(ctx, submission.ID, from, target, in.ReviewerID, in.Notes)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Zero rows matched: a concurrent reviewer won, or the
			// submission is not in a state this action accepts.
			observability.ReviewDecisions.WithLabelValues(in.Action, "conflict").Inc()
			return nil, models.NewConflictError("submission already reviewed")
		}
		return nil, models.NewInternalError(err)
	}
	observability.ReviewDecisions.WithLabelValues(in.Action, "ok").Inc()

	if target == models.SubmissionStatusApproved {
		s.issueReward(ctx, submission, in.ReviewerID)
	}

	updated, err := s.submissionRepo.GetByID(ctx, submission.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return updated, nil
}

// issueReward creates the ledger entry for an approved submission. The
// review decision is the primary fact; a failure here is logged and left to
// the reconciliation sweep.
func (s *ReviewService) issueReward(ctx context.Context, submission *models.Submission, reviewerID uint) {
	if _, err := s.ledger.IssueForSubmission(ctx, submission, reviewerID); err != nil {
		slog.ErrorContext(ctx, "reward issuance failed after approval",
			"submission_id", submission.ID,
			"reviewer_id", reviewerID,
			"err", err,
		)
	}
}
