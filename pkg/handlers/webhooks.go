package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/models"
	"github.com/onboardlens/onboardlens/pkg/services"
)

// WebhookSignatureHeader carries the sender's signature of the raw body.
const WebhookSignatureHeader = "X-Webhook-Signature"

const msgInvalidWebhookPayload = "Invalid webhook payload"

// webhookPayload is the wire form of a funnel event; ids are validated before
// conversion to models.WebhookEvent.
type webhookPayload struct {
	UserID    string          `json:"user_id"`
	ProjectID string          `json:"project_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// WebhooksHandler receives funnel events from external products.
type WebhooksHandler struct {
	webhookService services.WebhookService
	logger         *zap.Logger
}

// NewWebhooksHandler creates a new webhooks handler.
func NewWebhooksHandler(webhookService services.WebhookService, logger *zap.Logger) *WebhooksHandler {
	return &WebhooksHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// RegisterRoutes registers the webhook route. It carries no bearer token;
// the signature header authenticates the sender.
func (h *WebhooksHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/webhooks/funnel-update", h.FunnelUpdate)
}

// FunnelUpdate handles POST /api/webhooks/funnel-update
func (h *WebhooksHandler) FunnelUpdate(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get(WebhookSignatureHeader)
	if signature == "" {
		writeError(w, h.logger, http.StatusUnauthorized, "Missing webhook signature")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, msgInvalidWebhookPayload)
		return
	}

	if err := h.webhookService.VerifySignature(body, signature); err != nil {
		h.logger.Warn("Webhook signature rejected", zap.String("remote_addr", r.RemoteAddr))
		writeError(w, h.logger, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	event, ok := parseWebhookEvent(body)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, msgInvalidWebhookPayload)
		return
	}

	if err := h.webhookService.Process(r.Context(), event); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			writeError(w, h.logger, http.StatusNotFound, msgProjectNotFound)
		case errors.Is(err, services.ErrUnknownEventType):
			writeError(w, h.logger, http.StatusBadRequest, "Unknown event type")
		default:
			h.logger.Error("Webhook processing failed",
				zap.String("project_id", event.ProjectID.String()),
				zap.Error(err))
			writeError(w, h.logger, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Webhook processed successfully"})
}

// parseWebhookEvent requires user_id, project_id and event_type, with both ids UUIDs.
func parseWebhookEvent(body []byte) (*models.WebhookEvent, bool) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	if payload.UserID == "" || payload.ProjectID == "" || payload.EventType == "" {
		return nil, false
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return nil, false
	}
	projectID, err := uuid.Parse(payload.ProjectID)
	if err != nil {
		return nil, false
	}

	return &models.WebhookEvent{
		UserID:    userID,
		ProjectID: projectID,
		EventType: models.WebhookEventType(payload.EventType),
		Data:      payload.Data,
	}, true
}
