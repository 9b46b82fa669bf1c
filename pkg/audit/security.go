// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventInjectionAttempt is logged when libinjection flags a submitted field.
	EventInjectionAttempt SecurityEventType = "injection_attempt"
	// EventWebhookRejected is logged when an inbound webhook fails verification.
	EventWebhookRejected SecurityEventType = "webhook_rejected"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	ProjectID uuid.UUID         `json:"project_id"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails contains specifics of a flagged field.
type InjectionDetails struct {
	Source      string `json:"source"` // e.g. "project", "webhook"
	FieldName   string `json:"field_name"`
	FieldValue  string `json:"field_value"`
	Kind        string `json:"kind"`                  // "sqli" or "xss"
	Fingerprint string `json:"fingerprint,omitempty"` // libinjection fingerprint, sqli only
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor under the "security_audit" logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionAttempt records a flagged field at ERROR level with "critical" severity.
//
// The user ID is taken from JWT claims when present; webhook callers pass it
// through userID instead.
func (a *SecurityAuditor) LogInjectionAttempt(
	ctx context.Context,
	projectID uuid.UUID,
	userID string,
	details InjectionDetails,
	clientIP string,
) {
	if claimsUser := auth.GetUserIDFromContext(ctx); claimsUser != "" {
		userID = claimsUser
	}

	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventInjectionAttempt,
		ProjectID: projectID,
		UserID:    userID,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  "critical",
	}

	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Error("Injection attempt detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("project_id", projectID.String()),
		zap.String("source", details.Source),
		zap.String("field_name", details.FieldName),
		zap.String("kind", details.Kind),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("client_ip", clientIP),
		zap.String("user_id", userID),
		zap.String("severity", "critical"),
	)
}

// LogWebhookRejected records a webhook that failed signature or ownership checks.
// Logged at WARN level: most rejections are misconfigured integrations, not attacks.
func (a *SecurityAuditor) LogWebhookRejected(
	projectID uuid.UUID,
	userID string,
	reason string,
	clientIP string,
) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventWebhookRejected,
		ProjectID: projectID,
		UserID:    userID,
		ClientIP:  clientIP,
		Details: map[string]string{
			"reason": reason,
		},
		Severity: "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Webhook rejected",
		zap.String("event_json", string(eventJSON)),
		zap.String("project_id", projectID.String()),
		zap.String("reason", reason),
		zap.String("client_ip", clientIP),
		zap.String("user_id", userID),
		zap.String("severity", "warning"),
	)
}
