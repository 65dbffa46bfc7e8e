package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"questhub/internal/models"
	"questhub/internal/observability"
	"questhub/internal/repository"

	"gorm.io/gorm"
)

// EventCategory is the closed set of partner event families. The event type
// string is decoded into a category once at ingestion; everything after that
// switches on the enum, with unknown as an explicit variant.
type EventCategory int

const (
	CategoryUnknown EventCategory = iota
	CategoryTransaction
	CategoryAdjustment
	CategoryParticipant
)

func (c EventCategory) String() string {
	switch c {
	case CategoryTransaction:
		return "transaction"
	case CategoryAdjustment:
		return "adjustment"
	case CategoryParticipant:
		return "participant"
	default:
		return "unknown"
	}
}

// ParseEventCategory splits an event type on its first segment and returns
// the category plus the remaining subtype.
func ParseEventCategory(eventType string) (EventCategory, string) {
	prefix, subtype, _ := strings.Cut(eventType, ".")
	switch prefix {
	case "transaction":
		return CategoryTransaction, subtype
	case "adjustment":
		return CategoryAdjustment, subtype
	case "participant":
		return CategoryParticipant, subtype
	default:
		return CategoryUnknown, subtype
	}
}

// RateLimiter is the sliding-window store behind webhook rate limiting.
// Redis-backed in production, in-memory elsewhere, so multi-instance
// deployments share one atomically-checked budget.
type RateLimiter interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// enrollmentApplier is the slice of EnrollmentService the pipeline needs
// for participant events.
type enrollmentApplier interface {
	ApplyPartnerStatus(ctx context.Context, userID, challengeID uint, status models.EnrollmentStatus) error
}

// webhookEnvelope is the minimal partner event shape. Unrecognized payload
// fields pass through untouched in the audit log.
type webhookEnvelope struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data webhookData `json:"data"`
}

type webhookData struct {
	IssuanceID            uint   `json:"issuance_id"`
	ExternalTransactionID string `json:"external_transaction_id"`
	Error                 string `json:"error"`
	UserID                uint   `json:"user_id"`
	ChallengeID           uint   `json:"challenge_id"`
}

// WebhookResult is the success payload of one accepted delivery.
type WebhookResult struct {
	EventID          string `json:"eventId"`
	Received         bool   `json:"received"`
	AlreadyProcessed bool   `json:"alreadyProcessed,omitempty"`
}

// WebhookService runs partner deliveries through the ingestion pipeline:
// workspace resolution, rate limiting, idempotency, signature verification,
// audit logging, dispatch, and finally the idempotency commit. Each stage is
// a hard gate.
type WebhookService struct {
	workspaceRepo   repository.WorkspaceRepository
	logRepo         repository.WebhookLogRepository
	idempotencyRepo repository.IdempotencyRepository
	ledger          *LedgerService
	enrollments     enrollmentApplier
	limiter         RateLimiter

	rateLimit  int
	rateWindow time.Duration
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	workspaceRepo repository.WorkspaceRepository,
	logRepo repository.WebhookLogRepository,
	idempotencyRepo repository.IdempotencyRepository,
	ledger *LedgerService,
	enrollments enrollmentApplier,
	limiter RateLimiter,
	rateLimit int,
	rateWindow time.Duration,
) *WebhookService {
	if rateLimit <= 0 {
		rateLimit = 100
	}
	if rateWindow <= 0 {
		rateWindow = time.Minute
	}
	return &WebhookService{
		workspaceRepo:   workspaceRepo,
		logRepo:         logRepo,
		idempotencyRepo: idempotencyRepo,
		ledger:          ledger,
		enrollments:     enrollments,
		limiter:         limiter,
		rateLimit:       rateLimit,
		rateWindow:      rateWindow,
	}
}

// Process ingests one partner delivery addressed to workspaceID.
func (s *WebhookService) Process(ctx context.Context, workspaceID uint, rawBody []byte, signature string) (*WebhookResult, error) {
	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Workspace", workspaceID)
		}
		return nil, models.NewInternalError(err)
	}
	if !workspace.IntegrationEnabled || workspace.Status != models.WorkspaceStatusActive {
		return nil, models.NewNotFoundError("Workspace", workspaceID)
	}

	allowed, retryAfter, err := s.limiter.Take(ctx, fmt.Sprintf("webhook:ws:%d", workspaceID), s.rateLimit, s.rateWindow)
	if err != nil {
		// Fail open: a broken limiter must not drop partner callbacks.
		slog.WarnContext(ctx, "webhook rate limiter unavailable", "workspace_id", workspaceID, "err", err)
	} else if !allowed {
		observability.RateLimitRejections.WithLabelValues("webhook").Inc()
		return nil, models.NewRateLimitError(retryAfter)
	}

	var event webhookEnvelope
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, models.NewValidationError("malformed webhook payload")
	}
	if event.ID == "" || event.Type == "" {
		return nil, models.NewValidationError("webhook payload requires id and type")
	}

	// Replays short-circuit before verification cost is spent. A first-seen
	// event must still pass the signature gate below.
	processed, err := s.idempotencyRepo.IsProcessed(ctx, event.ID, workspaceID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if processed {
		observability.WebhookEvents.WithLabelValues("replay", "skipped").Inc()
		return &WebhookResult{EventID: event.ID, Received: true, AlreadyProcessed: true}, nil
	}

	if workspace.WebhookSecret != "" {
		if !verifySignature(rawBody, signature, workspace.WebhookSecret) {
			slog.WarnContext(ctx, "webhook signature rejected",
				"workspace_id", workspaceID, "event_id", event.ID)
			return nil, models.NewUnauthenticatedError("missing or invalid webhook signature")
		}
	}

	category, subtype := ParseEventCategory(event.Type)

	auditLog := &models.WebhookLog{
		WorkspaceID: workspaceID,
		EventID:     event.ID,
		EventType:   event.Type,
		Status:      models.WebhookLogStatusReceived,
		Payload:     string(rawBody),
	}
	// Audit failures never block the business transition.
	if err := s.logRepo.Append(ctx, auditLog); err != nil {
		slog.WarnContext(ctx, "webhook audit append failed",
			"workspace_id", workspaceID, "event_id", event.ID, "err", err)
	}

	if err := s.dispatch(ctx, workspaceID, category, subtype, event.Data); err != nil {
		observability.WebhookEvents.WithLabelValues(category.String(), "failed").Inc()
		s.markLog(ctx, auditLog, err)
		return nil, err
	}

	// Commit strictly after successful dispatch: a delivery that dies
	// mid-dispatch stays eligible for safe reprocessing on retry.
	if err := s.idempotencyRepo.MarkProcessed(ctx, event.ID, workspaceID); err != nil {
		slog.WarnContext(ctx, "webhook idempotency commit failed",
			"workspace_id", workspaceID, "event_id", event.ID, "err", err)
	}
	if auditLog.ID != 0 {
		if err := s.logRepo.MarkProcessed(ctx, auditLog.ID); err != nil {
			slog.WarnContext(ctx, "webhook audit update failed",
				"workspace_id", workspaceID, "event_id", event.ID, "err", err)
		}
	}

	observability.WebhookEvents.WithLabelValues(category.String(), "processed").Inc()
	return &WebhookResult{EventID: event.ID, Received: true}, nil
}

func (s *WebhookService) markLog(ctx context.Context, auditLog *models.WebhookLog, dispatchErr error) {
	if auditLog.ID == 0 {
		return
	}
	if err := s.logRepo.MarkFailed(ctx, auditLog.ID, dispatchErr.Error()); err != nil {
		slog.WarnContext(ctx, "webhook audit update failed",
			"workspace_id", auditLog.WorkspaceID, "event_id", auditLog.EventID, "err", err)
	}
}

func (s *WebhookService) dispatch(ctx context.Context, workspaceID uint, category EventCategory, subtype string, data webhookData) error {
	switch category {
	case CategoryTransaction:
		return s.handleTransaction(ctx, workspaceID, subtype, data)
	case CategoryAdjustment:
		return s.handleAdjustment(ctx, workspaceID, subtype, data)
	case CategoryParticipant:
		return s.handleParticipant(ctx, workspaceID, subtype, data)
	case CategoryUnknown:
		return models.NewValidationError("unsupported event category")
	default:
		return models.NewValidationError("unsupported event category")
	}
}

func (s *WebhookService) handleTransaction(ctx context.Context, workspaceID uint, subtype string, data webhookData) error {
	switch subtype {
	case "completed":
		var txnID *string
		if data.ExternalTransactionID != "" {
			txnID = &data.ExternalTransactionID
		}
		return s.ledger.ApplyWebhookEvent(ctx, data.IssuanceID, workspaceID, models.IssuanceStatusIssued, txnID, "")
	case "failed":
		reason := data.Error
		if reason == "" {
			reason = "partner reported failure"
		}
		return s.ledger.ApplyWebhookEvent(ctx, data.IssuanceID, workspaceID, models.IssuanceStatusFailed, nil, reason)
	default:
		slog.InfoContext(ctx, "ignoring transaction subtype",
			"workspace_id", workspaceID, "subtype", subtype)
		return nil
	}
}

func (s *WebhookService) handleAdjustment(ctx context.Context, workspaceID uint, subtype string, data webhookData) error {
	switch subtype {
	case "reversed":
		return s.ledger.ApplyWebhookEvent(ctx, data.IssuanceID, workspaceID, models.IssuanceStatusFailed, nil, "reversed by partner")
	default:
		slog.InfoContext(ctx, "ignoring adjustment subtype",
			"workspace_id", workspaceID, "subtype", subtype)
		return nil
	}
}

func (s *WebhookService) handleParticipant(ctx context.Context, workspaceID uint, subtype string, data webhookData) error {
	var status models.EnrollmentStatus
	switch subtype {
	case "completed":
		status = models.EnrollmentStatusCompleted
	case "withdrawn":
		status = models.EnrollmentStatusWithdrawn
	default:
		slog.InfoContext(ctx, "ignoring participant subtype",
			"workspace_id", workspaceID, "subtype", subtype)
		return nil
	}
	if data.UserID == 0 || data.ChallengeID == 0 {
		return models.NewValidationError("participant event requires user_id and challenge_id")
	}
	return s.enrollments.ApplyPartnerStatus(ctx, data.UserID, data.ChallengeID, status)
}

// verifySignature checks the hex HMAC-SHA256 of the raw body in constant time.
func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
