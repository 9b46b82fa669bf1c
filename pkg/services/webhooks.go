package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/audit"
	"github.com/onboardlens/onboardlens/pkg/logging"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/repositories"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnknownEventType = errors.New("unknown event type")
)

// SignaturePrefix is accepted, but not required, in front of the hex digest.
const SignaturePrefix = "sha256="

// EventPublisher fans project events out to live subscribers.
type EventPublisher interface {
	Publish(event models.ProjectEvent)
}

// WebhookService verifies and processes inbound funnel events.
type WebhookService interface {
	// VerifySignature checks the HMAC-SHA256 of body when a secret is configured.
	// Without a secret every non-empty signature is accepted.
	VerifySignature(body []byte, signature string) error
	// Process checks the event's project belongs to its user, logs the event
	// and publishes it to the project's subscribers.
	Process(ctx context.Context, event *models.WebhookEvent) error
}

type webhookService struct {
	projects  repositories.ProjectRepository
	withUser  UserContextFunc
	publisher EventPublisher
	auditor   *audit.SecurityAuditor
	secret    []byte
	now       func() time.Time
	logger    *zap.Logger
}

// NewWebhookService creates a new webhook service. Webhooks carry no bearer
// token, so withUser binds the payload's user before the project lookup.
func NewWebhookService(
	projects repositories.ProjectRepository,
	withUser UserContextFunc,
	publisher EventPublisher,
	auditor *audit.SecurityAuditor,
	secret string,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		projects:  projects,
		withUser:  withUser,
		publisher: publisher,
		auditor:   auditor,
		secret:    []byte(secret),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.Named("webhooks"),
	}
}

func (s *webhookService) VerifySignature(body []byte, signature string) error {
	if signature == "" {
		return ErrInvalidSignature
	}
	if len(s.secret) == 0 {
		return nil
	}

	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), SignaturePrefix))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *webhookService) Process(ctx context.Context, event *models.WebhookEvent) error {
	clientIP := audit.ClientIPFromContext(ctx)

	userCtx, cleanup, err := s.withUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("bind webhook user: %w", err)
	}
	defer cleanup()

	project, err := s.projects.Get(userCtx, event.ProjectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.auditor.LogWebhookRejected(event.ProjectID, event.UserID.String(), "project not found for user", clientIP)
		}
		return err
	}

	if !event.EventType.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, event.EventType)
	}

	for _, f := range audit.CheckFields(stringLeaves(event.Data)) {
		s.auditor.LogInjectionAttempt(ctx, project.ID, event.UserID.String(), f.Details("webhook"), clientIP)
	}

	fields := []zap.Field{
		zap.String("project_id", project.ID.String()),
		zap.String("event_type", string(event.EventType)),
		zap.String("data", logging.TruncateString(logging.SanitizeString(string(event.Data)), logging.MaxValueLogLength)),
	}
	switch event.EventType {
	case models.WebhookEventFunnelCompletion:
		s.logger.Info("Funnel completed", fields...)
	case models.WebhookEventStepCompletion:
		s.logger.Info("Step completed", fields...)
	case models.WebhookEventUserDropOff:
		s.logger.Info("User dropped off", fields...)
	}

	s.publisher.Publish(models.ProjectEvent{
		ProjectID:  project.ID,
		EventType:  event.EventType,
		Data:       event.Data,
		ReceivedAt: s.now(),
	})
	return nil
}

// stringLeaves collects every string value in a JSON document keyed by its path.
// Invalid or empty JSON yields no fields.
func stringLeaves(raw json.RawMessage) map[string]string {
	out := make(map[string]string)
	if len(raw) == 0 {
		return out
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out
	}
	collectStrings("data", doc, out)
	return out
}

func collectStrings(path string, v any, out map[string]string) {
	switch val := v.(type) {
	case string:
		out[path] = val
	case map[string]any:
		for k, child := range val {
			collectStrings(path+"."+k, child, out)
		}
	case []any:
		for i, child := range val {
			collectStrings(path+"["+strconv.Itoa(i)+"]", child, out)
		}
	}
}

var _ WebhookService = (*webhookService)(nil)
